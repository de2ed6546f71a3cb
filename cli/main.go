package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"LogDB/internal/domain"
	"LogDB/internal/platform/client"
	"LogDB/internal/platform/messaging/zeromq/listener"

	"github.com/go-kit/log"
	"github.com/pkg/errors"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: cli [-server URL] [-feed ADDR] get|put|delete|health|watch [key] [value]")
	flag.PrintDefaults()
}

func main() {
	server := flag.String("server", "http://localhost:3000", "LogDB server address")
	feed := flag.String("feed", "tcp://localhost:5556", "change feed address, used by watch")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	var err error
	if args[0] == "watch" {
		err = watch(*feed)
	} else {
		err = execute(client.NewLogDBClient(*server), args)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, domain.ErrKeyNotFound) {
			os.Exit(1)
		}
		os.Exit(3)
	}
}

func execute(c *client.LogDBClient, args []string) error {
	switch args[0] {
	case "get":
		if len(args) != 2 {
			return errors.New("get needs a key")
		}
		value, err := c.Get(args[1])
		if err != nil {
			return err
		}
		fmt.Println(value)
	case "put":
		if len(args) != 3 {
			return errors.New("put needs a key and a value")
		}
		return c.Put(args[1], args[2])
	case "delete":
		if len(args) != 2 {
			return errors.New("delete needs a key")
		}
		return c.Delete(args[1])
	case "health":
		h, err := c.Health()
		if err != nil {
			return err
		}
		fmt.Printf("status=%s keys=%d log_size_bytes=%d\n", h.Status, h.Keys, h.LogSizeBytes)
	default:
		return errors.Errorf("unknown command %q", args[0])
	}
	return nil
}

// watch prints every change published on the feed until interrupted.
func watch(address string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	l := listener.NewZeromqChangeListener(ctx, address, logger)
	defer l.Close()

	return l.Listen(ctx, func(change domain.EntryChange) {
		if change.Entry.Tombstone() {
			fmt.Printf("%d DELETE %s\n", change.Timestamp, change.Entry.Key())
			return
		}
		fmt.Printf("%d PUT %s %s\n", change.Timestamp, change.Entry.Key(), change.Entry.Value())
	})
}
