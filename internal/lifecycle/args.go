package lifecycle

import (
	"flag"
	"fmt"
	"io"
	"strconv"

	"jobmate/harvester-service/internal/model"
)

// Args renders cfg as the flags of the run sub-command.
func Args(cfg model.RunConfig) []string {
	args := []string{
		"--adapter", cfg.Adapter,
		"--url", cfg.SourceURL,
		"--name", cfg.Name,
		"--company-id", strconv.FormatInt(cfg.CompanyID, 10),
		"--save=" + strconv.FormatBool(cfg.Save),
		"--test=" + strconv.FormatBool(cfg.Test),
	}
	if cfg.ExperienceFallback != "" {
		args = append(args, "--experience-fallback", cfg.ExperienceFallback)
	}
	return args
}

// ParseArgs is the inverse of Args.
func ParseArgs(args []string) (model.RunConfig, error) {
	var cfg model.RunConfig
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.Adapter, "adapter", "", "adapter kind")
	fs.StringVar(&cfg.SourceURL, "url", "", "careers site or feed URL")
	fs.StringVar(&cfg.Name, "name", "", "platform name keying the progress row")
	fs.Int64Var(&cfg.CompanyID, "company-id", 0, "employer identifier stamped on records")
	fs.BoolVar(&cfg.Save, "save", false, "persist records")
	fs.BoolVar(&cfg.Test, "test", false, "fetch only the first page")
	fs.StringVar(&cfg.ExperienceFallback, "experience-fallback", "", "general or no_experience")
	if err := fs.Parse(args); err != nil {
		return model.RunConfig{}, fmt.Errorf("parse run flags: %w", err)
	}
	if fs.NArg() > 0 {
		return model.RunConfig{}, fmt.Errorf("unexpected run arguments %v", fs.Args())
	}
	if cfg.SourceURL == "" {
		return model.RunConfig{}, fmt.Errorf("--url is required")
	}
	return cfg, nil
}
