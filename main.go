package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/vesselkit/vessel/internal"
	"github.com/vesselkit/vessel/internal/docker"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic occurred: %v", r)
			os.Exit(1)
		}
	}()

	if err := run(os.Args, os.Environ()); err != nil {
		log.Fatal(err)
	}
}

func run(args, env []string) error {
	cleanupMgr := internal.NewCleanupManager()
	defer cleanupMgr.Execute()

	config, err := internal.ParseConfig(args[1:], env)
	if err != nil {
		return err
	}

	// Create context with cancellation for proper goroutine cleanup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals to cancel context and cleanup
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	w := internal.NewStandardWriter()

	client, err := docker.NewDefaultClient()
	if err != nil {
		return fmt.Errorf("failed to create docker client: %w\nMake sure Docker is installed and running (try 'docker ps')", err)
	}
	cleanupMgr.Add("docker-client", func() error {
		client.Close()
		return nil
	})

	builder := docker.NewContainerBuilder(client, config.Image)

	if config.Tag != "" {
		builder = builder.WithTag(config.Tag)
	}
	if config.Name != "" {
		builder = builder.WithName(config.Name)
	}
	if config.SlugLength > 0 {
		builder = builder.WithSlugLength(config.SlugLength)
	}
	for _, value := range config.Publish {
		port, err := docker.ParsePort(value)
		if err != nil {
			return fmt.Errorf("failed to parse publish flag: %w", err)
		}
		builder = builder.Expose(port)
	}
	if len(config.Command) > 0 {
		builder = builder.WithCommand(config.Command...)
	}
	if len(config.Env) > 0 {
		builder = builder.WithEnv(config.Env...)
	}
	if config.Pull {
		builder = builder.WithPull()
	}
	if config.Interactive {
		builder = builder.WithTTY()
	}

	container, err := builder.Build(ctx, w)
	if err != nil {
		return fmt.Errorf("failed to build container from image %q: %w", config.Image, err)
	}
	if !config.Keep {
		// Build succeeded, so the handle is valid; delete with a fresh
		// context because ctx may already be cancelled by a signal
		cleanupMgr.Add("container", func() error {
			return container.Delete(context.Background())
		})
	}

	w.Printf("Container %s is running as %q\n", container.ID(), container.Name())
	for port, bindings := range container.Ports() {
		for _, binding := range bindings {
			host := "0.0.0.0"
			if binding.HostIP.IsValid() {
				host = binding.HostIP.String()
			}
			w.Printf("  %s -> %s:%s\n", port, host, binding.HostPort)
		}
	}

	if config.Interactive {
		err = container.Attach(ctx, w)
		if err != nil {
			return fmt.Errorf("failed to attach to container %q: %w\nThis may indicate a TTY configuration issue", container.ID(), err)
		}
	}

	err = container.Wait(ctx, w)
	if err != nil {
		return fmt.Errorf("failed to wait for container %q: %w", container.ID(), err)
	}

	return nil
}
