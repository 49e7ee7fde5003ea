package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
	"github.com/spf13/cobra"

	"github.com/roach88/tracefold/internal/pipeline"
)

// configSchema closes the config file over the fields of pipeline.Config.
const configSchema = `
#Config: {
	order?:     int & >=1 & <=10
	evenOnly?:  bool
	pool?:      int & >=1
	workers?:   int & >=1
	fileTerms?: int & >=1
}
`

// ConfigError is a configuration file that could not be loaded.
type ConfigError struct {
	Path    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *ConfigError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// LoadConfig reads a CUE config file and overlays its fields on base.
// Fields the file leaves out keep their base values.
//
//	order:     6
//	evenOnly:  true
//	pool:      5000
//	workers:   8
//	fileTerms: 20000
func LoadConfig(path string, base pipeline.Config) (pipeline.Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return base, &ConfigError{Path: path, Message: fmt.Sprintf("config file not found: %v", err)}
	}
	if info.IsDir() {
		return base, &ConfigError{Path: path, Message: "config path is a directory"}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{filepath.Base(path)}, &load.Config{Dir: filepath.Dir(path)})
	if len(instances) == 0 {
		return base, &ConfigError{Path: path, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return base, cueError(path, "loading config", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return base, cueError(path, "building config", err)
	}

	schema := ctx.CompileString(configSchema).LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return base, cueError(path, "invalid config", err)
	}

	cfg := base
	if err := unified.Decode(&cfg); err != nil {
		return base, cueError(path, "decoding config", err)
	}
	return cfg, nil
}

func cueError(path, context string, err error) *ConfigError {
	ce := &ConfigError{Path: path, Message: fmt.Sprintf("%s: %v", context, err)}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		ce.Pos = errs[0].Position()
	}
	return ce
}

// ConfigFlags are the evaluation flags shared by evaluate and merge.
type ConfigFlags struct {
	File      string
	Order     int
	Odd       bool
	Pool      int
	Workers   int
	FileTerms int
}

func (f *ConfigFlags) register(cmd *cobra.Command) {
	d := pipeline.DefaultConfig()
	cmd.Flags().StringVar(&f.File, "config", "", "CUE config file")
	cmd.Flags().IntVar(&f.Order, "order", d.Order, "highest expansion order kept (1-10)")
	cmd.Flags().BoolVar(&f.Odd, "odd", false, "keep terms of odd order")
	cmd.Flags().IntVar(&f.Pool, "pool", d.Pool, "terms per evaluation chunk and merge batch")
	cmd.Flags().IntVar(&f.Workers, "workers", d.Workers, "chunks evaluated concurrently")
	cmd.Flags().IntVar(&f.FileTerms, "file-terms", d.FileTerms, "terms per checkpoint file")
}

// resolve builds the config: defaults, then the config file, then every
// flag set on the command line. The result is validated.
func (f *ConfigFlags) resolve(cmd *cobra.Command) (pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	if f.File != "" {
		loaded, err := LoadConfig(f.File, cfg)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("order") {
		cfg.Order = f.Order
	}
	if flags.Changed("odd") {
		cfg.EvenOnly = !f.Odd
	}
	if flags.Changed("pool") {
		cfg.Pool = f.Pool
	}
	if flags.Changed("workers") {
		cfg.Workers = f.Workers
	}
	if flags.Changed("file-terms") {
		cfg.FileTerms = f.FileTerms
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
