// cmd/onboard/main.go
//
// Onboard – command-line submitter.
//
// Reads one candidate record as JSON, applies optional pre-fill, validates
// it, and (unless -validate) sends it to the configured endpoint through the
// same submission controller the web form uses.
//
//	onboard -file candidate.json
//	echo '{...}' | onboard -file - -prefill 'services=Branding'
//	onboard -file candidate.json -validate
//
// Exit status: 0 success, 1 invalid record, 2 submission or usage failure.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdeptTravel/adept-onboard/internal/config"
	"github.com/AdeptTravel/adept-onboard/internal/endpoint"
	"github.com/AdeptTravel/adept-onboard/internal/logger"
	"github.com/AdeptTravel/adept-onboard/internal/onboarding"
	"github.com/AdeptTravel/adept-onboard/internal/submit"
	"github.com/AdeptTravel/adept-onboard/internal/vault"
)

const (
	exitOK      = 0
	exitInvalid = 1
	exitFailed  = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run is main without the process globals, for tests.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("onboard", flag.ContinueOnError)
	fs.SetOutput(stderr)
	root := fs.String("root", "", "config root (default: ONBOARD_ROOT or discovered)")
	file := fs.String("file", "-", "candidate JSON file, or - for stdin")
	prefill := fs.String("prefill", "", "pre-fill query string, e.g. 'services=Branding&email=a@b.co'")
	validateOnly := fs.Bool("validate", false, "validate only, do not submit")
	if err := fs.Parse(args); err != nil {
		return exitFailed
	}

	cand, err := readCandidate(*file, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "onboard: %v\n", err)
		return exitFailed
	}
	if *prefill != "" {
		q, err := url.ParseQuery(*prefill)
		if err != nil {
			fmt.Fprintf(stderr, "onboard: -prefill: %v\n", err)
			return exitFailed
		}
		pre := onboarding.PrefillFromQuery(q)
		if pre.Empty() {
			fmt.Fprintln(stderr, "onboard: -prefill matched no known field; ignored")
		}
		pre.Apply(&cand)
	}

	schema := onboarding.NewSchema()
	if *validateOnly {
		if _, errs := schema.Validate(cand); len(errs) > 0 {
			printFieldErrors(stdout, errs)
			return exitInvalid
		}
		fmt.Fprintln(stdout, "valid")
		return exitOK
	}

	if *root == "" {
		*root = config.RootDir()
	}
	cfg, err := config.LoadAuto(ctx, *root, dialVault)
	if err != nil {
		fmt.Fprintf(stderr, "onboard: load config: %v\n", err)
		return exitFailed
	}
	logOut, err := logger.New(cfg.Log.Dir, cfg.Log.Level, false)
	if err != nil {
		fmt.Fprintf(stderr, "onboard: start logger: %v\n", err)
		return exitFailed
	}
	defer func() { _ = logOut.Sync() }()

	client := endpoint.New(cfg.Endpoint.URL,
		endpoint.WithTimeout(cfg.Endpoint.Timeout),
		endpoint.WithLogger(logOut.Named("endpoint")))
	ctl := submit.New(schema, client, submit.WithLogger(logOut.Named("cli")))

	fb, err := ctl.Submit(ctx, cand)
	if err != nil {
		fmt.Fprintf(stderr, "onboard: %v\n", err)
		return exitFailed
	}
	return report(stdout, fb)
}

// report prints fb and maps it to an exit status.  Only a record the schema
// rejected exits 1; any other failure is the endpoint's or ours.
func report(w io.Writer, fb submit.Feedback) int {
	switch {
	case fb.Kind == submit.FeedbackSuccess:
		fmt.Fprintln(w, fb.Message)
		return exitOK
	case onboarding.IsValidationError(fb.Err):
		printFieldErrors(w, fb.Fields)
		return exitInvalid
	default:
		fmt.Fprintln(w, fb.Message)
		return exitFailed
	}
}

func printFieldErrors(w io.Writer, errs []onboarding.FieldError) {
	fmt.Fprintln(w, submit.InvalidMessage)
	for _, fe := range errs {
		fmt.Fprintf(w, "  %s: %s\n", fe.Field, fe.Message)
	}
}

// readCandidate decodes a Candidate from path, or stdin when path is "-".
// Unknown keys are rejected so typos do not silently drop fields.
func readCandidate(path string, stdin io.Reader) (onboarding.Candidate, error) {
	var cand onboarding.Candidate

	in := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return cand, err
		}
		defer f.Close()
		in = f
	}

	dec := json.NewDecoder(in)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cand); err != nil {
		if errors.Is(err, io.EOF) {
			return cand, errors.New("empty candidate input")
		}
		return cand, fmt.Errorf("decode candidate: %w", err)
	}
	return cand, nil
}

// dialVault runs before logger.New, so the client is given no logger and
// picks up the global one once it is installed.
func dialVault(ctx context.Context, ttl time.Duration) (config.SecretResolver, error) {
	return vault.New(ctx, nil, ttl)
}
