package internal

import (
	"flag"
	"fmt"
	"strings"
)

type Config struct {
	Image       string
	Tag         string
	Name        string
	SlugLength  int
	Publish     []string
	Command     []string
	Env         []string
	Pull        bool
	Interactive bool
	Keep        bool
}

type stringSlice []string

func (s *stringSlice) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSlice) Set(value string) error {
	*s = append(*s, value)
	return nil
}

// ParseConfig parses command-line arguments and environment variables
// into the configuration for provisioning a container. Flags come
// first; anything after them (or after "--") is captured as the command
// the container runs. The --publish and --env flags are repeatable and
// their values are kept in the order they were given, since that is the
// order they are declared to the engine. The container environment
// inherits TERM and COLORTERM from the caller's environment so an
// interactive session renders correctly.
func ParseConfig(args []string, environment []string) (Config, error) {
	lookup := make(map[string]string)
	for _, variable := range environment {
		key, value, ok := strings.Cut(variable, "=")
		if ok {
			lookup[key] = value
		}
	}

	var (
		image         string
		tag           string
		name          string
		slugLength    int
		publish       stringSlice
		additionalEnv stringSlice
		pull          bool
		interactive   bool
		keep          bool
	)

	fs := flag.NewFlagSet("vessel", flag.ContinueOnError)
	fs.StringVar(&image, "image", "", "image to run (required)")
	fs.StringVar(&tag, "tag", "", "image tag (default \"latest\")")
	fs.StringVar(&name, "name", "", "container name")
	fs.IntVar(&slugLength, "slug-length", 0, "length of random suffix appended to the name")
	fs.Var(&publish, "publish", "publish a port as HOST:CONTAINER[/proto]")
	fs.Var(&additionalEnv, "env", "environment variable for the container as KEY=value")
	fs.BoolVar(&pull, "pull", false, "pull the image before creating the container")
	fs.BoolVar(&interactive, "interactive", false, "attach to the container with a TTY")
	fs.BoolVar(&keep, "keep", false, "do not remove the container on exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if image == "" {
		return Config{}, fmt.Errorf("missing required flag --image\nRun with --help to see usage")
	}

	if slugLength < 0 {
		return Config{}, fmt.Errorf("--slug-length must not be negative, got %d", slugLength)
	}

	var env []string
	value, ok := lookup["TERM"]
	if !ok {
		value = "xterm-256color"
	}
	env = append(env, fmt.Sprintf("TERM=%s", value))

	value, ok = lookup["COLORTERM"]
	if !ok {
		value = "truecolor"
	}
	env = append(env, fmt.Sprintf("COLORTERM=%s", value))

	env = append(env, additionalEnv...)

	return Config{
		Image:       image,
		Tag:         tag,
		Name:        name,
		SlugLength:  slugLength,
		Publish:     publish,
		Command:     fs.Args(),
		Env:         env,
		Pull:        pull,
		Interactive: interactive,
		Keep:        keep,
	}, nil
}
