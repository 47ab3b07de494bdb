package situation

import (
	"fmt"
	"strings"
	"time"
)

// MealSlot 用餐时段编码，与训练数据中的 meal_slot_encoded 一致
type MealSlot int

const (
	Breakfast MealSlot = iota
	Lunch
	Dinner
	LateNight
)

func (m MealSlot) String() string {
	switch m {
	case Breakfast:
		return "breakfast"
	case Lunch:
		return "lunch"
	case Dinner:
		return "dinner"
	case LateNight:
		return "late_night"
	default:
		return "unknown"
	}
}

// ParseMealSlot 解析时段名称
func ParseMealSlot(s string) (MealSlot, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "breakfast":
		return Breakfast, nil
	case "lunch":
		return Lunch, nil
	case "dinner":
		return Dinner, nil
	case "late_night", "latenight":
		return LateNight, nil
	}
	return 0, fmt.Errorf("unknown meal slot %q", s)
}

// SlotForHour 按小时推导时段
func SlotForHour(hour int) MealSlot {
	switch {
	case hour >= 5 && hour < 11:
		return Breakfast
	case hour >= 11 && hour < 16:
		return Lunch
	case hour >= 16 && hour < 23:
		return Dinner
	default:
		return LateNight
	}
}

// Situation 是推荐时的情境输入 (非购物车派生部分)
type Situation struct {
	Hour       int      `json:"hour"`
	Weekend    bool     `json:"weekend"`
	MealSlot   MealSlot `json:"meal_slot"`
	StepNumber int      `json:"step_number"`
}

// Provider 为每次推荐提供情境，step 为当前购物车大小
type Provider interface {
	Situation(step int) Situation
}

// Fixed 始终返回固定的情境，用于复现参考行为和测试
type Fixed struct {
	Hour     int
	Weekend  bool
	MealSlot MealSlot
}

// DefaultFixed 晚餐时段、工作日、20 点
func DefaultFixed() Fixed {
	return Fixed{Hour: 20, Weekend: false, MealSlot: Dinner}
}

func (f Fixed) Situation(step int) Situation {
	return Situation{Hour: f.Hour, Weekend: f.Weekend, MealSlot: f.MealSlot, StepNumber: step}
}

// Clock 根据真实时钟推导情境
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

func (c Clock) Situation(step int) Situation {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	t := now()
	if c.Location != nil {
		t = t.In(c.Location)
	}
	wd := t.Weekday()
	return Situation{
		Hour:       t.Hour(),
		Weekend:    wd == time.Saturday || wd == time.Sunday,
		MealSlot:   SlotForHour(t.Hour()),
		StepNumber: step,
	}
}

// Config 情境配置
type Config struct {
	Mode     string `koanf:"mode"` // "fixed" 或 "clock"
	Hour     int    `koanf:"hour"`
	Weekend  bool   `koanf:"weekend"`
	MealSlot string `koanf:"meal_slot"`
	Timezone string `koanf:"timezone"`
}

// New 按配置构造 Provider
func New(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Mode) {
	case "", "fixed":
		slot, err := ParseMealSlot(cfg.MealSlot)
		if err != nil {
			return nil, err
		}
		if cfg.Hour < 0 || cfg.Hour > 23 {
			return nil, fmt.Errorf("hour %d out of range [0,23]", cfg.Hour)
		}
		return Fixed{Hour: cfg.Hour, Weekend: cfg.Weekend, MealSlot: slot}, nil
	case "clock":
		loc := time.Local
		if cfg.Timezone != "" {
			l, err := time.LoadLocation(cfg.Timezone)
			if err != nil {
				return nil, fmt.Errorf("load timezone: %w", err)
			}
			loc = l
		}
		return Clock{Location: loc}, nil
	}
	return nil, fmt.Errorf("unknown situation mode %q", cfg.Mode)
}
