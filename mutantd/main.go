package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	log "github.com/ntons/log-go"
	logcfg "github.com/ntons/log-go/config"
	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/ntons/mutant/mutantd/internal/comm"
	"github.com/ntons/mutant/mutantd/internal/srv"
)

// build time variables
var (
	Version   string
	Built     string
	GitCommit string
	GoVersion string
	OSArch    string
)

// names collects repeated flag values, sorted and without duplicates.
type names []string

func (ns *names) String() string { return strings.Join(*ns, ",") }

func (ns *names) Set(v string) error {
	for _, name := range strings.Split(v, ",") {
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		i := sort.SearchStrings(*ns, name)
		if i < len(*ns) && (*ns)[i] == name {
			continue
		}
		*ns = append(*ns, "")
		copy((*ns)[i+1:], (*ns)[i:])
		(*ns)[i] = name
	}
	return nil
}

type options struct {
	// -c configuration file path
	configPath string
	// -i serve only these services, configured or not
	include names
	// -e drop these services from configuration
	exclude names
	// -v print version and exit
	version bool
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("mutantd", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.configPath, "c", "", "[C]onfig file path")
	fs.Var(&opts.include, "i", "[I]nclude service, repeatable or comma separated")
	fs.Var(&opts.exclude, "e", "[E]xclude service, repeatable or comma separated")
	fs.BoolVar(&opts.version, "v", false, "Print [v]ersion and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return opts, nil
}

// setupLog switches to the configured logger, otherwise development
// environments log at debug level.
func setupLog(level zap.AtomicLevel) error {
	if comm.Config.Log != nil {
		return comm.Config.Log.Use()
	}
	if comm.IsDevEnv() {
		level.SetLevel(zap.DebugLevel)
	}
	return nil
}

func _main(args []string, level zap.AtomicLevel) error {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to parse command line options: %w", err)
	}
	if opts.version {
		fmt.Printf("mutantd %s (%s, built %s, %s %s)\n",
			Version, GitCommit, Built, GoVersion, OSArch)
		return nil
	}

	if opts.configPath != "" {
		if err = comm.LoadConfig(opts.configPath); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
	}
	if err = setupLog(level); err != nil {
		return fmt.Errorf("failed to use log: %w", err)
	}
	if err = comm.SelectServices(opts.include, opts.exclude); err != nil {
		return err
	}
	if len(comm.Config.Services) == 0 {
		return errors.New("no service to serve")
	}

	log.Infow("server is starting",
		"Version", Version,
		"Built", Built,
		"GitCommit", GitCommit,
		"GoVersion", GoVersion,
		"OSArch", OSArch,
		"Env", comm.Config.Env)

	server := srv.New()
	errc := make(chan error, 1)
	go func() {
		errc <- serve(server)
		server.Shutdown()
	}()

	server.WaitForTerm()
	log.Info("server is stopping")
	server.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	server.Shutdown()
	if err = <-errc; err != nil {
		return err
	}
	log.Info("server has stopped gracefully")
	return nil
}

func main() {
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	defaultLogConfig := logcfg.Config{
		Zap: &zap.Config{
			Level:            level,
			Encoding:         "json",
			EncoderConfig:    zap.NewProductionEncoderConfig(),
			OutputPaths:      []string{"stdout"},
			ErrorOutputPaths: []string{"stderr"},
		},
	}
	defaultLogConfig.Use()

	if err := _main(os.Args[1:], level); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
