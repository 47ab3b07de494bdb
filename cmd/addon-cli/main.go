package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"addon_engine/internal/cart"
	"addon_engine/internal/logger"
	"addon_engine/internal/recommend"
	"addon_engine/internal/scorer"
	"addon_engine/internal/situation"
)

type cliOptions struct {
	artifacts recommend.Config
	clock     bool
	seed      int64
	trace     bool
	debug     bool
	items     []int
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		logger.Fatal("addon-cli: %v", err)
	}
	logger.Init(logger.Config{Debug: opts.debug, Output: os.Stderr})
	if err := run(opts, os.Stdin, os.Stdout); err != nil {
		logger.Fatal("addon-cli: %v", err)
	}
}

func parseFlags() (cliOptions, error) {
	var opts cliOptions
	flag.StringVar(&opts.artifacts.Catalog, "catalog", "data/catalog_sample.csv", "Catalog CSV/TSV file")
	flag.StringVar(&opts.artifacts.Contract, "features", "data/feature_cols.json", "Feature contract (JSON array or one column per line)")
	flag.StringVar(&opts.artifacts.Model.Path, "model", "data/model_logistic.json", "Model artifact (.onnx or logistic .json)")
	flag.StringVar(&opts.artifacts.Model.ONNX.SharedLibrary, "onnxruntime", "", "Path to the onnxruntime shared library")
	flag.StringVar(&opts.artifacts.Labels, "labels", "", "Category names YAML (default: built-in names)")
	flag.StringVar(&opts.artifacts.Pipelines, "pipelines", "", "Pipeline JSON (default: built-in addon pipeline)")
	flag.BoolVar(&opts.clock, "clock", false, "Use wall-clock situational context instead of the fixed dinner context")
	flag.Int64Var(&opts.seed, "seed", 0, "Seed for price sampling (0: random)")
	flag.BoolVar(&opts.trace, "trace", false, "Print the pipeline trace")
	flag.BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options] [category ...]\n\nWithout categories, codes are read from STDIN one per line.\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	for _, arg := range flag.Args() {
		code, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil || code <= 0 {
			flag.Usage()
			return opts, fmt.Errorf("invalid category %q", arg)
		}
		opts.items = append(opts.items, code)
	}
	opts.artifacts.Model.Format = "auto"
	return opts, nil
}

func run(opts cliOptions, in io.Reader, out io.Writer) error {
	artifacts, err := recommend.LoadArtifacts(opts.artifacts)
	if err != nil {
		return err
	}
	defer func() {
		artifacts.Close()
		scorer.Shutdown()
	}()

	mode := "fixed"
	if opts.clock {
		mode = "clock"
	}
	sp, err := situation.New(situation.Config{Mode: mode, Hour: 20, MealSlot: "dinner"})
	if err != nil {
		return err
	}
	svc, err := recommend.NewService(artifacts, sp, recommend.Options{Trace: opts.trace})
	if err != nil {
		return err
	}

	seed := opts.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	sess := &cliSession{
		svc:  svc,
		cart: cart.New(0),
		rng:  rand.New(rand.NewSource(seed)), //nolint:gosec // price sampling only
		out:  out,
	}

	if len(opts.items) > 0 {
		for _, code := range opts.items {
			if err := sess.add(code); err != nil {
				return err
			}
		}
		return sess.recommend()
	}
	return sess.interactive(in)
}

type cliSession struct {
	svc  *recommend.Service
	cart *cart.Cart
	rng  *rand.Rand
	out  io.Writer
}

func (s *cliSession) add(code int) error {
	entry, err := s.svc.AddToCart(s.cart, code, s.rng)
	if err != nil {
		return err
	}
	name := s.svc.Artifacts().Labels.Name(code)
	fmt.Fprintf(s.out, "Added %s (%d) at %.2f, cart: %d items, %.2f total\n",
		name, code, entry.Price, s.cart.Size(), s.cart.TotalValue())
	return nil
}

func (s *cliSession) recommend() error {
	res, err := s.svc.Recommend(context.Background(), "cli", s.cart)
	if err != nil {
		return err
	}
	if res.Status == recommend.StatusEmptyCart {
		fmt.Fprintln(s.out, "Cart is empty, add an item first.")
		return nil
	}

	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tCATEGORY\tPRICE\tSCORE")
	for _, it := range res.Items {
		fmt.Fprintf(tw, "%d\t%s (%d)\t%.2f\t%.4f\n", it.Rank, it.CategoryName, it.Category, it.Price, it.Score)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, line := range res.Trace {
		fmt.Fprintln(s.out, "  "+line)
	}
	return nil
}

// interactive 每输入一个品类编码即加购并刷新推荐，空行只刷新推荐，q 退出
func (s *cliSession) interactive(in io.Reader) error {
	fmt.Fprintln(s.out, "Enter a category code to add it to the cart (empty line: recommend, q: quit)")
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "q" || line == "quit":
			return nil
		case line == "":
		default:
			code, err := strconv.Atoi(line)
			if err != nil || code <= 0 {
				fmt.Fprintf(s.out, "invalid category %q\n", line)
				continue
			}
			if err := s.add(code); err != nil {
				// 品类为空不终止会话
				fmt.Fprintf(s.out, "cannot add: %v\n", err)
				continue
			}
		}
		if err := s.recommend(); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
