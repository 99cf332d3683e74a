package app

import (
	"context"
	"errors"

	"github.com/verso-store/internal/config"
	"github.com/verso-store/internal/logger"
	"github.com/verso-store/internal/provider"
	"github.com/verso-store/internal/router"
	"github.com/verso-store/internal/worker"
)

// BuildRunner 构建服务运行器；api 与 worker 模式共享同一个依赖容器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if !isKnownMode(mode) {
		return nil, errors.New("unknown mode: " + mode)
	}

	container := provider.NewContainer(cfg)

	// 依赖容器最先登记，逆序停止时最后释放 Redis、队列与事件连接
	services := []Service{&containerService{container: container}}

	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(cfg.Server.Addr(), engine))
	}

	if mode == ModeAll && !cfg.Queue.Enabled {
		logger.Warnw("worker_skipped_queue_disabled", "mode", mode)
	} else if mode == ModeAll || mode == ModeWorker {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(&cfg.Queue, consumer)
		if err != nil {
			container.Close()
			return nil, err
		}
		services = append(services, workerService)
	}

	if len(services) == 1 {
		container.Close()
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	opts.Logger.Infow("app_start", "addr", opts.Config.Server.Addr(), "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}

// containerService 将依赖容器的释放接入服务生命周期
type containerService struct {
	container *provider.Container
}

func (s *containerService) Name() string { return "container" }

func (s *containerService) Start(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (s *containerService) Stop(ctx context.Context) error {
	s.container.Close()
	return nil
}
