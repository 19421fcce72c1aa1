// Package main provides the data.all command line client. It compiles the
// backend schema into callable operations and drives the profile-based
// authorization flows, so operations can be listed, described, and invoked
// without writing any GraphQL.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/data-dot-all/dataall-core/internal/logging"
	"github.com/data-dot-all/dataall-core/sdk/auth"
	"github.com/data-dot-all/dataall-core/sdk/dataall"
	"github.com/data-dot-all/dataall-core/sdk/profile"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
}

// argsFlag collects repeated -args key=value pairs.
type argsFlag []string

func (a *argsFlag) String() string {
	return strings.Join(*a, ",")
}

func (a *argsFlag) Set(value string) error {
	*a = append(*a, value)
	return nil
}

func main() {
	var login bool
	var listOperations bool
	var describeOp string
	var invokeOp string
	var callArgs argsFlag
	var argsJSON string
	var profileName string
	var configPath string
	var secretARN string
	var schemaVersion string
	var endpoint string
	var logFile string
	var showVersion bool
	var quietMode bool
	var verboseMode bool

	flag.BoolVar(&login, "login", false, "Acquire a token for the profile and exit")
	flag.BoolVar(&listOperations, "list-operations", false, "List callable operations and exit")
	flag.StringVar(&describeOp, "describe", "", "Describe an operation: document, arguments, and docs")
	flag.StringVar(&invokeOp, "invoke", "", "Invoke an operation and print its JSON result")
	flag.Var(&callArgs, "args", "Operation argument as key=value (repeatable, used with -invoke)")
	flag.StringVar(&argsJSON, "args-json", "", "Operation arguments as a JSON object (used with -invoke)")
	flag.StringVar(&profileName, "profile", dataall.DefaultProfileName, "Profile name to resolve")
	flag.StringVar(&configPath, "config", "", "Profile config file path")
	flag.StringVar(&secretARN, "secret-arn", "", "Resolve the profile from this Secrets Manager secret")
	flag.StringVar(&schemaVersion, "schema-version", "", "Compile this built-in schema version instead of the latest")
	flag.StringVar(&endpoint, "endpoint", "", "Override the profile's API endpoint URL")
	flag.StringVar(&logFile, "log-file", "", "Mirror logs into this rotating file")
	flag.BoolVar(&showVersion, "version", false, "Show version and exit")
	flag.BoolVar(&quietMode, "quiet", false, "Run in quiet mode (overrides -verbose)")
	flag.BoolVar(&verboseMode, "verbose", false, "Run in verbose mode")
	flag.Parse()

	// Load environment variables from .env if present.
	if wd, err := os.Getwd(); err == nil {
		if errLoad := godotenv.Load(filepath.Join(wd, ".env")); errLoad != nil && !errors.Is(errLoad, os.ErrNotExist) {
			log.WithError(errLoad).Warn("failed to load .env file")
		}
	}

	if err := logging.ConfigureLogOutput(logFile, 0); err != nil {
		log.Errorf("failed to configure log output: %v", err)
		os.Exit(1)
	}
	if quietMode {
		logging.SetLogLevel("quiet")
	} else if verboseMode {
		logging.SetLogLevel("verbose")
	}

	if showVersion {
		fmt.Printf("dataall version: %s, commit: %s, built at: %s\n", Version, Commit, BuildDate)
		return
	}

	ctx := context.Background()

	if login {
		if err := runLogin(ctx, profileName, configPath, secretARN, endpoint); err != nil {
			log.Errorf("login failed: %v", err)
			os.Exit(1)
		}
		return
	}

	client, err := bindClient(ctx, profileName, configPath, secretARN, endpoint, schemaVersion)
	if err != nil {
		log.Errorf("could not build client: %v", err)
		os.Exit(1)
	}

	if listOperations {
		runListOperations(client)
		return
	}
	if describeOp != "" {
		if err = runDescribe(client, describeOp); err != nil {
			log.Errorf("describe failed: %v", err)
			os.Exit(1)
		}
		return
	}
	if invokeOp != "" {
		if err = runInvoke(ctx, client, invokeOp, callArgs, argsJSON); err != nil {
			log.Errorf("invoke failed: %v", err)
			os.Exit(1)
		}
		return
	}

	flag.Usage()
	os.Exit(2)
}

// resolveProfile loads the profile the mode flags point at, preferring the
// secret ARN over the local config file, and applies the endpoint
// override.
func resolveProfile(ctx context.Context, profileName, configPath, secretARN, endpoint string) (*profile.Profile, error) {
	var p *profile.Profile
	var err error
	if secretARN != "" {
		p, err = profile.LoadFromSecret(ctx, profileName, secretARN)
	} else {
		p, err = profile.Load(profileName, configPath)
	}
	if err != nil {
		return nil, err
	}
	if p != nil && endpoint != "" {
		p.APIEndpointURL = endpoint
	}
	return p, nil
}

// runLogin acquires (or refreshes) a token for the profile, prompting for
// missing credentials, and reports the expiry of the cached token.
func runLogin(ctx context.Context, profileName, configPath, secretARN, endpoint string) error {
	p, err := resolveProfile(ctx, profileName, configPath, secretARN, endpoint)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("profile %q not found", profileName)
	}

	if p.Username == "" {
		if p.Username, err = promptLine(fmt.Sprintf("Username for profile %q: ", p.ProfileName)); err != nil {
			return err
		}
	}
	if p.Password == "" {
		if p.Password, err = promptPassword(fmt.Sprintf("Password for %s: ", p.Username)); err != nil {
			return err
		}
	}

	if _, err = auth.New(p).GetJWTToken(ctx); err != nil {
		return err
	}
	fmt.Printf("Login succeeded for profile %q, token valid until %s\n", p.ProfileName, p.Credentials.ExpiresAt)
	return nil
}

func bindClient(ctx context.Context, profileName, configPath, secretARN, endpoint, schemaVersion string) (*dataall.BoundClient, error) {
	var factoryOpts []dataall.Option
	if schemaVersion != "" {
		factoryOpts = append(factoryOpts, dataall.WithSchemaVersion(schemaVersion))
	}
	c, err := dataall.New(factoryOpts...)
	if err != nil {
		return nil, err
	}

	p, err := resolveProfile(ctx, profileName, configPath, secretARN, endpoint)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return c.Client(ctx, dataall.WithProfile(p))
	}
	return c.Client(ctx)
}

func runListOperations(client *dataall.BoundClient) {
	for _, op := range client.Operations() {
		doc := op.Doc
		if idx := strings.IndexByte(doc, '\n'); idx >= 0 {
			doc = doc[:idx]
		}
		fmt.Printf("%-40s %s\n", op.Name, doc)
	}
}

func runDescribe(client *dataall.BoundClient, name string) error {
	op, err := client.Describe(name)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s)\n\n%s\n", op.Name, op.OperationName, op.Doc)
	if len(op.InputArgs) > 0 {
		args := make([]string, 0, len(op.InputArgs))
		for arg := range op.InputArgs {
			args = append(args, arg)
		}
		sort.Strings(args)
		fmt.Println("\nDeclared arguments:")
		for _, arg := range args {
			fmt.Printf("  %-32s %s\n", arg, op.InputArgs[arg])
		}
	}
	if len(op.FlattenInputArgs) > 0 {
		keys := make([]string, 0, len(op.FlattenInputArgs))
		for key := range op.FlattenInputArgs {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		fmt.Println("\nKeyword arguments:")
		for _, key := range keys {
			fmt.Printf("  %-32s %s\n", key, op.FlattenInputArgs[key].Description)
		}
	}
	fmt.Printf("\nDocument:%s\n", op.QueryDefinition)
	return nil
}

func runInvoke(ctx context.Context, client *dataall.BoundClient, name string, pairs argsFlag, argsJSON string) error {
	callArgs := dataall.Args{}
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &callArgs); err != nil {
			return fmt.Errorf("could not parse -args-json: %w", err)
		}
	}
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return fmt.Errorf("argument %q is not of the form key=value", pair)
		}
		callArgs[key] = parseArgValue(value)
	}

	result, err := client.Call(ctx, name, callArgs)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// parseArgValue keeps numbers, booleans, and null typed; everything else
// stays a string.
func parseArgValue(value string) any {
	var typed any
	if err := json.Unmarshal([]byte(value), &typed); err == nil {
		return typed
	}
	return value
}

func promptLine(label string) (string, error) {
	fmt.Print(label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(label string) (string, error) {
	fmt.Print(label)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		// Fall back to echoing input when stdin is not a terminal.
		return promptLine("")
	}
	return strings.TrimSpace(string(raw)), nil
}
