// healthcheck probes the grpc health service of a running mutantd.
//
//	healthcheck [-s SERVICE] [-t TIMEOUT] ADDRESS check|watch
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func check(ctx context.Context, c healthpb.HealthClient, service string, w io.Writer) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := c.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, fmt.Errorf("failed to check: %w", err)
	}
	fmt.Fprintf(w, "remote status: %v\n", resp.Status)
	return resp.Status, nil
}

// watch prints every status change until the stream breaks or ctx is done.
func watch(ctx context.Context, c healthpb.HealthClient, service string, w io.Writer) error {
	stream, err := c.Watch(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return fmt.Errorf("failed to watch: %w", err)
	}
	for {
		resp, err := stream.Recv()
		if err != nil {
			return fmt.Errorf("failed to recv: %w", err)
		}
		fmt.Fprintf(w, "remote status: %v\n", resp.Status)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [-s service] [-t timeout] address check|watch\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	var (
		service string
		timeout time.Duration
	)
	flag.StringVar(&service, "s", "", "[s]ervice name, empty for the whole server")
	flag.DurationVar(&timeout, "t", 3*time.Second, "[t]imeout of check")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 2 || (flag.Arg(1) != "check" && flag.Arg(1) != "watch") {
		usage()
		os.Exit(1)
	}

	conn, err := grpc.Dial(flag.Arg(0),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to dial: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()
	c := healthpb.NewHealthClient(conn)

	switch flag.Arg(1) {
	case "check":
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		status, err := check(ctx, c, service, os.Stdout)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if status != healthpb.HealthCheckResponse_SERVING {
			os.Exit(2)
		}
	case "watch":
		if err := watch(context.Background(), c, service, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
