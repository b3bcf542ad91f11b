package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-blockeditor"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("blockindex: %v", err)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("blockindex", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to a TOML configuration file")
	slug := fs.String("slug", "", "Slug of the document to project")
	culture := fs.String("culture", "", "Culture to project (blank for invariant documents)")
	segment := fs.String("segment", "", "Segment to project")
	published := fs.Bool("published", false, "Project the published value instead of the draft")
	render := fs.Bool("render", false, "Print the render model as JSON instead of index text")
	timeout := fs.Duration("timeout", 30*time.Second, "Overall timeout")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*slug) == "" {
		return errors.New("slug is required")
	}

	cfg := blockeditor.DefaultConfig()
	if *configPath != "" {
		loaded, err := blockeditor.LoadConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg.Features.Commands = false
	cfg.Features.WatchContentTypes = false

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	module, err := blockeditor.New(cfg)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Close()
	if err := module.Start(ctx); err != nil {
		return fmt.Errorf("start module: %w", err)
	}

	doc, err := module.Content().GetBySlug(ctx, strings.TrimSpace(*slug))
	if err != nil {
		return err
	}
	req := blockeditor.ProjectRequest{
		ID:        doc.ID,
		Culture:   strings.TrimSpace(*culture),
		Segment:   strings.TrimSpace(*segment),
		Published: *published,
	}

	if *render {
		model, err := module.Content().Render(ctx, req)
		if err != nil {
			return err
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(model)
	}

	text, err := module.Content().Index(ctx, req)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, text)
	return err
}
