package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"
	"time"

	"weir/internal/catalog"
	"weir/internal/daemon"
	"weir/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc"), ctx: ctx}
	if err := rpcServer.RegisterName("Weir", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually or rerun weir stop"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.logger.Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	s.logger.Info("daemon started via IPC",
		logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.logger.Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	resp.Running = status.Running
	resp.PID = status.PID
	if !status.StartedAt.IsZero() {
		resp.StartedAt = status.StartedAt.UTC().Format(time.RFC3339)
	}
	resp.Directories = status.Directories
	resp.Watch = WatchStats{
		LocalDirs:        status.Watch.LocalDirs,
		NetworkDirs:      status.Watch.NetworkDirs,
		PartialItems:     status.Watch.PartialItems,
		PollTimerActive:  status.Watch.PollTimerActive,
		RetryTimerActive: status.Watch.RetryTimerActive,
	}
	resp.Catalog = CatalogStats{
		Total:     status.Catalog.Total,
		Detected:  status.Catalog.Detected,
		HandedOff: status.Catalog.HandedOff,
		Failed:    status.Catalog.Failed,
	}
	resp.CatalogDBPath = status.CatalogDBPath
	resp.LockPath = status.LockFilePath
	resp.HandoffDir = status.HandoffDir
	return nil
}

func (s *service) WatchAdd(req WatchAddRequest, resp *WatchAddResponse) error {
	req.Path = strings.TrimSpace(req.Path)
	if req.Path == "" {
		return errors.New("watch add requires a path")
	}
	s.logger.Debug("watch add requested", logging.String(logging.FieldDirectory, req.Path))
	if err := s.daemon.WatchAdd(req.Path); err != nil {
		return err
	}
	resp.Directories = s.daemon.WatchList()
	s.logger.Info("watch directory added",
		logging.String(logging.FieldEventType, "watch_add"),
		logging.String(logging.FieldDirectory, req.Path))
	return nil
}

func (s *service) WatchRemove(req WatchRemoveRequest, resp *WatchRemoveResponse) error {
	req.Path = strings.TrimSpace(req.Path)
	if req.Path == "" {
		return errors.New("watch remove requires a path")
	}
	s.logger.Debug("watch remove requested", logging.String(logging.FieldDirectory, req.Path))
	if err := s.daemon.WatchRemove(req.Path); err != nil {
		return err
	}
	resp.Directories = s.daemon.WatchList()
	s.logger.Info("watch directory removed",
		logging.String(logging.FieldEventType, "watch_remove"),
		logging.String(logging.FieldDirectory, req.Path))
	return nil
}

func (s *service) WatchList(_ WatchListRequest, resp *WatchListResponse) error {
	resp.Directories = s.daemon.WatchList()
	return nil
}

func (s *service) ItemList(req ItemListRequest, resp *ItemListResponse) error {
	var status catalog.Status
	if req.Status != "" {
		parsed, ok := catalog.ParseStatus(req.Status)
		if !ok {
			return fmt.Errorf("unknown status %q", req.Status)
		}
		status = parsed
	}
	items, err := s.daemon.ListItems(s.ctx, status, req.Limit)
	if err != nil {
		return err
	}
	resp.Items = make([]Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		resp.Items = append(resp.Items, FromCatalogItem(item))
	}
	return nil
}

func (s *service) ItemDescribe(req ItemDescribeRequest, resp *ItemDescribeResponse) error {
	if req.ID <= 0 {
		return fmt.Errorf("invalid catalog item id %d", req.ID)
	}
	item, err := s.daemon.GetItem(s.ctx, req.ID)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("catalog item %d not found", req.ID)
	}
	resp.Item = FromCatalogItem(item)
	return nil
}

func (s *service) ItemClear(_ ItemClearRequest, resp *ItemClearResponse) error {
	s.logger.Debug("catalog clear requested")
	removed, err := s.daemon.ClearItems(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.logger.Info("catalog cleared",
		logging.String(logging.FieldEventType, "catalog_clear"),
		logging.Int64("removed_count", removed))
	return nil
}

func (s *service) ItemClearHandedOff(_ ItemClearHandedOffRequest, resp *ItemClearHandedOffResponse) error {
	s.logger.Debug("catalog clear handed-off requested")
	removed, err := s.daemon.ClearHandedOff(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.logger.Info("catalog handed-off items cleared",
		logging.String(logging.FieldEventType, "catalog_clear_handed_off"),
		logging.Int64("removed_count", removed))
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	if err != nil {
		return err
	}
	resp.Sent = sent
	resp.Message = message
	return nil
}
