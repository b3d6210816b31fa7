package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"soc-platform/internal/event"
)

const maxDatagram = 64 * 1024

// Sink receives events built from raw syslog lines.
type Sink interface {
	Process(ctx context.Context, ev event.LogEvent)
}

// SyslogServer accepts raw log lines over UDP datagrams and TCP
// connections. Lines arrive without authentication, so every event lands
// under the configured default tenant with source "syslog".
type SyslogServer struct {
	udpPort int
	tcpPort int
	tenant  string
	sink    Sink
	log     *slog.Logger
}

func NewSyslogServer(udpPort, tcpPort int, tenant string, sink Sink, log *slog.Logger) *SyslogServer {
	if log == nil {
		log = slog.Default()
	}
	return &SyslogServer{
		udpPort: udpPort,
		tcpPort: tcpPort,
		tenant:  tenant,
		sink:    sink,
		log:     log,
	}
}

// Run binds both listeners and serves until ctx is cancelled.
func (s *SyslogServer) Run(ctx context.Context) error {
	pc, err := net.ListenPacket("udp", fmt.Sprintf(":%d", s.udpPort))
	if err != nil {
		return fmt.Errorf("syslog: bind udp :%d: %w", s.udpPort, err)
	}
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.tcpPort))
	if err != nil {
		pc.Close()
		return fmt.Errorf("syslog: bind tcp :%d: %w", s.tcpPort, err)
	}
	s.log.Info("syslog listeners started", "udp", s.udpPort, "tcp", s.tcpPort)

	go func() {
		<-ctx.Done()
		pc.Close()
		ln.Close()
	}()

	go s.serveUDP(ctx, pc)
	s.serveTCP(ctx, ln)
	return ctx.Err()
}

func (s *SyslogServer) serveUDP(ctx context.Context, pc net.PacketConn) {
	buf := make([]byte, maxDatagram)
	for {
		n, _, err := pc.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Error("syslog udp read failed", "err", err)
			continue
		}
		s.deliver(ctx, string(buf[:n]))
	}
}

func (s *SyslogServer) serveTCP(ctx context.Context, ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Error("syslog tcp accept failed", "err", err)
			continue
		}
		go s.serveConn(ctx, conn)
	}
}

func (s *SyslogServer) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxDatagram)
	for scanner.Scan() {
		s.deliver(ctx, scanner.Text())
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		s.log.Error("syslog tcp read failed", "remote", conn.RemoteAddr().String(), "err", err)
	}
}

// deliver wraps one raw line into an event and hands it to the sink.
// Blank lines are dropped.
func (s *SyslogServer) deliver(ctx context.Context, line string) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return
	}
	s.sink.Process(ctx, BuildSyslogEvent(s.tenant, line))
}

// BuildSyslogEvent wraps a raw line into a canonical event. The line is
// carried verbatim as the message; no header parsing is attempted.
func BuildSyslogEvent(tenant, line string) event.LogEvent {
	return event.New(tenant, "syslog", "syslog", line, event.SeverityInfo, "syslog", map[string]any{})
}
