package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"monosynth/src/synth"
)

const sockFileName = "/tmp/monosynth.sock"

func main() {
	flag.Parse()
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	engine := synth.NewEngine()
	defer engine.Close()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(signalCh)
		cancel()
	}()
	go func() {
		sig := <-signalCh
		logrus.WithFields(logrus.Fields{"signal": sig}).Info("shutting down")
		cancel()
	}()

	err := withIPCConnection(ctx, func(conn net.Conn) error {
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return engine.Start(ctx)
		})
		g.Go(func() error {
			return receiveCommands(ctx, conn, engine.CommandCh)
		})
		g.Go(func() error {
			return runControlLoop(ctx, conn, engine)
		})
		g.Go(func() error {
			for data := range synth.ListenToMidiIn(ctx) {
				engine.AddMidiEvent(data)
			}
			return nil
		})
		return g.Wait()
	})
	if err != nil {
		logrus.WithError(err).Fatal("exited with error")
	}
	logrus.Info("main() ended")
}

func withIPCConnection(ctx context.Context, f func(net.Conn) error) error {
	os.Remove(sockFileName)
	listener, err := new(net.ListenConfig).Listen(ctx, "unix", sockFileName)
	if err != nil {
		return err
	}
	defer func() {
		logrus.Info("closing IPC")
		if err := listener.Close(); err != nil {
			logrus.WithError(err).Error("error while closing listener")
		}
		os.Remove(sockFileName)
	}()
	logrus.Info("start listening")
	conn, err := listener.Accept()
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logrus.WithError(err).Error("error while closing connection")
		}
	}()
	return f(conn)
}

func receiveCommands(ctx context.Context, conn net.Conn, commandCh chan<- []string) error {
	reader := bufio.NewReader(conn)
	var line []byte
loop:
	for {
		select {
		case <-ctx.Done():
			logrus.Info("connection interrupted")
			break loop
		default:
		}
		next, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			break loop
		}
		if err != nil {
			return err
		}
		line = append(line, next...)
		if isPrefix {
			continue
		}
		command, err := parseCommand(string(line))
		if err != nil {
			return err
		}
		commandCh <- command
		line = []byte{}
	}
	logrus.Info("receiveCommands() ended")
	return nil
}

func parseCommand(line string) ([]string, error) {
	items := strings.Split(line, " ")
	for i, item := range items {
		escaped, err := url.QueryUnescape(item)
		if err != nil {
			return nil, err
		}
		items[i] = escaped
	}
	return items, nil
}

// runControlLoop ticks the playback scheduler and pushes state reports
// to the UI at roughly 60Hz.
func runControlLoop(ctx context.Context, conn net.Conn, engine *synth.Engine) error {
	t := time.NewTicker(time.Second / 60)
	defer t.Stop()
loop:
	for {
		select {
		case <-ctx.Done():
			logrus.Info("runControlLoop() interrupted")
			break loop
		case <-t.C:
			engine.Tick(float64(time.Now().UnixNano()) / 1e9)
			state := engine.ToJSON()
			select {
			case <-ctx.Done():
				break loop
			default:
				if _, err := conn.Write(append(append([]byte("state "), state...), '\n')); err != nil {
					return err
				}
			}
		}
	}
	logrus.Info("runControlLoop() ended")
	return nil
}
