package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"
)

// listen binds addr and accepts connections until ctx is cancelled. Each
// accepted connection is handled by its own goroutine that reads exactly
// one framed message, hands it to handle, and closes — the listener never
// blocks on any one neighbor.
func listen(ctx context.Context, addr string, readTimeout time.Duration, log *slog.Logger, handle func(Message)) (net.Listener, error) {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s: %w", addr, err)
	}

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
					log.Debug("accept failed", "error", err)
					continue
				}
			}
			go func(c net.Conn) {
				defer c.Close()
				c.SetReadDeadline(time.Now().Add(readTimeout))
				msg, err := readFrame(c)
				if err != nil {
					log.Debug("dropped unparseable message", "remote", c.RemoteAddr(), "error", err)
					return
				}
				handle(msg)
			}(conn)
		}
	}()

	return ln, nil
}

// send opens a short-lived outbound connection to addr, writes exactly one
// framed message, and closes. A failed send is logged and dropped; a send
// failure alone never marks the destination failed — only the
// receive-side failure detector does that.
func send(addr string, msg Message, connectTimeout time.Duration, log *slog.Logger) {
	frame, err := encodeFrame(msg)
	if err != nil {
		log.Debug("encode failed", "dest", addr, "error", err)
		return
	}

	d := net.Dialer{Timeout: connectTimeout}
	conn, err := d.Dial("tcp", addr)
	if err != nil {
		log.Debug("dial failed", "dest", addr, "error", err)
		return
	}
	defer conn.Close()

	conn.SetWriteDeadline(time.Now().Add(connectTimeout))
	if _, err := conn.Write(frame); err != nil {
		log.Debug("write failed", "dest", addr, "error", err)
	}
}
