// Package daemon hosts a single cache.CacheStore behind a unix socket, so
// repeated invocations from the same repo share one open store instead of
// re-scanning folder_index.json files on every process launch. The daemon is
// spawned lazily by the first cachewrap invocation and exits after a period
// of no activity (the next invocation spawns it again).
package daemon

import (
	"bufio"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"

	"quicken/internal/cache"
	"quicken/internal/common"
	"quicken/internal/daemonproto"
	"quicken/internal/orchestrator"
)

// quit after 15 seconds without connections
const idleQuitAfter = 15 * time.Second

type Daemon struct {
	id         string
	store      *cache.CacheStore
	logger     *common.LoggerWrapper
	sockPath   string
	listener   net.Listener
	quitChan   chan struct{}
	quitOnce   int32
	lastActive atomic.Int64 // unix nanos
	active     atomic.Int32
}

// MakeDaemon assigns the daemon instance a random id, distinguishing
// successive daemon lifetimes for log correlation after a restart.
func MakeDaemon(store *cache.CacheStore, logger *common.LoggerWrapper, sockPath string) *Daemon {
	d := &Daemon{
		id:       uuid.NewString(),
		store:    store,
		logger:   logger,
		sockPath: sockPath,
		quitChan: make(chan struct{}),
	}
	d.lastActive.Store(time.Now().UnixNano())
	return d
}

// StartListeningUnixSocket removes any stale socket file and binds a fresh
// unix listener.
func (d *Daemon) StartListeningUnixSocket() error {
	_ = os.Remove(d.sockPath)
	l, err := net.Listen("unix", d.sockPath)
	if err != nil {
		return err
	}
	d.listener = l
	return nil
}

// ServeUntilNobodyAlive accepts connections until QuitDaemonGracefully is
// called, either by the idle timer or by SIGTERM.
func (d *Daemon) ServeUntilNobodyAlive() {
	d.logger.Info(0, "daemon", d.id, "listening on", d.sockPath)

	go d.watchSignals()
	go d.acceptLoop()
	d.idleLoop()
}

func (d *Daemon) acceptLoop() {
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			select {
			case <-d.quitChan:
				return
			default:
				d.logger.Error("accept error:", err)
				continue
			}
		}
		d.lastActive.Store(time.Now().UnixNano())
		go d.onConnection(conn)
	}
}

func (d *Daemon) idleLoop() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-d.quitChan:
			return
		case <-ticker.C:
			if d.active.Load() == 0 && time.Since(time.Unix(0, d.lastActive.Load())) > idleQuitAfter {
				d.QuitDaemonGracefully("no connections receiving anymore")
				return
			}
		}
	}
}

func (d *Daemon) watchSignals() {
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM)

	select {
	case <-d.quitChan:
		return
	case <-signals:
		d.QuitDaemonGracefully("got sigterm")
	}
}

func (d *Daemon) QuitDaemonGracefully(reason string) {
	if !atomic.CompareAndSwapInt32(&d.quitOnce, 0, 1) {
		return
	}
	d.logger.Info(0, "daemon quit:", reason)
	close(d.quitChan)
	if d.listener != nil {
		_ = d.listener.Close()
	}
}

// onConnection reads one request frame, processes it, writes one response
// frame, and closes the connection. One round trip per invocation.
func (d *Daemon) onConnection(conn net.Conn) {
	defer conn.Close()

	d.active.Add(1)
	defer func() {
		d.active.Add(-1)
		d.lastActive.Store(time.Now().UnixNano())
	}()

	slice, err := bufio.NewReaderSize(conn, 64*1024).ReadSlice(0)
	if err != nil {
		d.logger.Error("couldn't read from socket:", err)
		_, _ = conn.Write(daemonproto.EncodeResponse(daemonproto.Response{ExitCode: 1, Stderr: "daemon: " + err.Error()}))
		return
	}

	req, err := daemonproto.DecodeRequest(slice[:len(slice)-1])
	if err != nil {
		d.logger.Error("malformed request:", err)
		_, _ = conn.Write(daemonproto.EncodeResponse(daemonproto.Response{ExitCode: 1, Stderr: "daemon: " + err.Error()}))
		return
	}

	resp := d.handle(req)
	_, _ = conn.Write(daemonproto.EncodeResponse(resp))
}

func (d *Daemon) handle(req daemonproto.Request) daemonproto.Response {
	adapter, err := BuildAdapter(req)
	if err != nil {
		return daemonproto.Response{ExitCode: 1, Stderr: "quicken: " + err.Error()}
	}

	result, err := orchestrator.Run(d.store, orchestrator.Invocation{
		Adapter:       adapter,
		MainFile:      req.MainFile,
		RepoRoot:      req.RepoRoot,
		ToolArgs:      req.ToolArgs,
		InputPathArgs: req.InputPathArgs,
	})
	if err != nil {
		d.logger.Error("invocation failed:", err)
		return daemonproto.Response{ExitCode: 1, Stderr: "quicken: " + err.Error()}
	}

	return daemonproto.Response{
		ExitCode: result.ReturnCode,
		CacheHit: result.CacheHit,
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
	}
}
