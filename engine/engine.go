package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alekLukanen/errs"
	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/prometheus/client_golang/prometheus"

	arrowops "github.com/alekLukanen/columnmap/arrowOps"
	"github.com/alekLukanen/columnmap/config"
	"github.com/alekLukanen/columnmap/dispatch"
	"github.com/alekLukanen/columnmap/elements"
	"github.com/alekLukanen/columnmap/host"
	"github.com/alekLukanen/columnmap/mappers"
	"github.com/alekLukanen/columnmap/operations"
	"github.com/alekLukanen/columnmap/runners"
	"github.com/alekLukanen/columnmap/storage"
)

type EngineOptions struct {
	// metrics are not registered when nil
	Registerer prometheus.Registerer

	// in-process callbacks by handle name
	Callbacks map[string]host.ICallback

	// built from the config when nil
	ObjectStorage storage.IObjectStorage
	HostQueue     host.IHostQueue
	Allocator     memory.Allocator
}

type Engine struct {
	logger *slog.Logger
	cfg    config.Config

	allocator     memory.Allocator
	objectStorage storage.IObjectStorage
	keyStorage    storage.IKeyStorage

	registry    *operations.MapperRegistry
	evaluator   *operations.Evaluator
	dispatchers map[string]*dispatch.Dispatcher
	expressions []elements.ColumnExpression
}

func NewEngine(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.Config,
	options EngineOptions,
) (*Engine, error) {
	allocator := options.Allocator
	if allocator == nil {
		allocator = memory.NewGoAllocator()
	}

	runner, err := newRunner(logger, cfg.Execution)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		logger:        logger,
		cfg:           cfg,
		allocator:     allocator,
		objectStorage: options.ObjectStorage,
		registry:      operations.NewMapperRegistry(ctx, logger),
		evaluator:     operations.NewEvaluator(logger, runner),
		dispatchers:   make(map[string]*dispatch.Dispatcher),
	}

	if engine.objectStorage == nil && cfg.ObjectStorage.Enabled() {
		objectStorage, err := storage.NewObjectStorage(ctx, logger, *storage.NewObjectStorageOptionsFromStaticCredentials(
			cfg.ObjectStorage.Endpoint,
			cfg.ObjectStorage.Region,
			cfg.ObjectStorage.AuthKey,
			cfg.ObjectStorage.AuthSecret,
			cfg.ObjectStorage.UsePathStyle,
		))
		if err != nil {
			return nil, errs.Wrap(err)
		}
		engine.objectStorage = objectStorage
	}

	err = engine.buildDispatchers(ctx, options)
	if err != nil {
		engine.Close()
		return nil, err
	}

	err = engine.buildExpressions(ctx)
	if err != nil {
		engine.Close()
		return nil, err
	}

	logger.Info(
		"engine ready",
		slog.Int("handles", len(engine.dispatchers)),
		slog.Int("expressions", len(engine.expressions)),
		slog.String("runner", cfg.Execution.Runner),
	)
	return engine, nil
}

func newRunner(logger *slog.Logger, cfg config.ExecutionConfig) (runners.IRunner, error) {
	switch cfg.Runner {
	case config.RunnerSingleThreaded, "":
		return runners.NewSingleThreadedRunner(logger), nil
	case config.RunnerParallel:
		return runners.NewParallelRunner(logger, runners.ParallelRunnerOptions{Workers: cfg.Workers}), nil
	case config.RunnerWholeColumn:
		return runners.NewWholeColumnRunner(logger), nil
	default:
		return nil, errs.NewStackError(fmt.Errorf("%w| %s", ErrUnknownRunner, cfg.Runner))
	}
}

func (obj *Engine) buildDispatchers(ctx context.Context, options EngineOptions) error {
	metrics := dispatch.NewMetrics(options.Registerer)

	hostQueue := options.HostQueue
	for _, h := range obj.cfg.Handles {
		var callback host.ICallback
		if h.Remote {
			if hostQueue == nil {
				keyStorage, err := storage.NewKeyStorage(ctx, obj.logger, storage.KeyStorageOptions{
					Address:     obj.cfg.Redis.Address,
					Password:    obj.cfg.Redis.Password,
					KeyPrefix:   obj.cfg.Redis.KeyPrefix,
					ResponseTTL: obj.cfg.Redis.ResponseTTL,
				})
				if err != nil {
					return errs.Wrap(err)
				}
				obj.keyStorage = keyStorage
				hostQueue = keyStorage
			}
			redisCallback, err := host.NewRedisCallback(obj.logger, hostQueue, host.RedisCallbackOptions{
				Handle:          h.Handle,
				ResponseTimeout: h.ResponseTimeout,
				Exclusive:       h.Exclusive,
			})
			if err != nil {
				return errs.Wrap(err)
			}
			callback = redisCallback
		} else {
			registered, ok := options.Callbacks[h.Handle]
			if !ok {
				return errs.NewStackError(fmt.Errorf("%w| handle %s", ErrCallbackNotRegistered, h.Handle))
			}
			callback = registered
		}

		obj.dispatchers[h.Handle] = dispatch.NewDispatcher(
			obj.logger,
			h.Handle,
			callback,
			dispatch.Options{Timeout: h.Timeout, LockOSThread: h.LockOSThread},
			metrics,
		)
	}
	return nil
}

func (obj *Engine) buildExpressions(ctx context.Context) error {
	for _, exprCfg := range obj.cfg.Expressions {
		mapper, err := obj.buildMapper(ctx, exprCfg)
		if err != nil {
			return errs.Wrap(err)
		}
		err = obj.registry.AddMappers(mapper)
		if err != nil {
			return errs.Wrap(err)
		}

		expr := elements.NewColumnExpression(exprCfg.Input, mapper).As(exprCfg.Output)
		if err := expr.Validate(); err != nil {
			return errs.Wrap(err)
		}
		obj.expressions = append(obj.expressions, expr)
	}
	return nil
}

func (obj *Engine) buildMapper(ctx context.Context, exprCfg config.ExpressionConfig) (elements.IColumnMapper, error) {
	switch exprCfg.Type {
	case config.ExpressionTypeDictionary:
		mapping, err := obj.loadMapping(ctx, exprCfg.Dictionary)
		if err != nil {
			return nil, err
		}
		return mappers.NewDictionaryMapper(
			obj.logger,
			exprCfg.Name,
			mapping,
			mappers.DictionaryMapOptions{OnMissing: mappers.MissingKeyPolicy(exprCfg.Dictionary.OnMissing)},
		)
	case config.ExpressionTypeCallback:
		dispatcher, ok := obj.dispatchers[exprCfg.Callback.Handle]
		if !ok {
			return nil, errs.NewStackError(fmt.Errorf("%w| handle %s", ErrCallbackNotRegistered, exprCfg.Callback.Handle))
		}
		return mappers.NewCallbackMapper(
			obj.logger,
			exprCfg.Name,
			dispatcher,
			mappers.CallbackMapOptions{Mode: mappers.InvocationMode(exprCfg.Callback.Mode)},
		)
	default:
		return nil, errs.NewStackError(fmt.Errorf("%w| expression type %s", config.ErrInvalidConfig, exprCfg.Type))
	}
}

func (obj *Engine) loadMapping(ctx context.Context, dictCfg config.DictionaryConfig) (map[string]string, error) {
	switch {
	case dictCfg.File != "":
		return mappers.LoadMappingFile(dictCfg.File)
	case dictCfg.Key != "":
		if obj.objectStorage == nil {
			return nil, errs.NewStackError(fmt.Errorf("%w| mapping %s/%s", ErrObjectStorageNotConfigured, dictCfg.Bucket, dictCfg.Key))
		}
		return mappers.LoadMappingFromObjectStorage(ctx, obj.objectStorage, dictCfg.Bucket, dictCfg.Key)
	default:
		return dictCfg.Mapping, nil
	}
}

func (obj *Engine) Allocator() memory.Allocator {
	return obj.allocator
}

func (obj *Engine) Expressions() []elements.ColumnExpression {
	return obj.expressions
}

func (obj *Engine) Registry() operations.IMapperRegistry {
	return obj.registry
}

// EvaluateTable applies the configured expressions in order.
func (obj *Engine) EvaluateTable(ctx context.Context, tbl arrow.Table) (arrow.Table, error) {
	return obj.evaluator.EvaluateTable(ctx, obj.allocator, tbl, obj.expressions...)
}

func (obj *Engine) EvaluateRecord(ctx context.Context, rec arrow.Record) (arrow.Record, error) {
	return obj.evaluator.EvaluateRecord(ctx, obj.allocator, rec, obj.expressions...)
}

/*
* ProcessParquet reads the configured input file, evaluates every
* expression and writes the output file. When the input names an object
* it is downloaded first, and when the output names one the result is
* uploaded after it is written.
 */
func (obj *Engine) ProcessParquet(ctx context.Context) error {
	input, output := obj.cfg.Input, obj.cfg.Output

	if input.Key != "" {
		if obj.objectStorage == nil {
			return errs.NewStackError(fmt.Errorf("%w| input %s/%s", ErrObjectStorageNotConfigured, input.Bucket, input.Key))
		}
		data, err := obj.objectStorage.Download(ctx, input.Bucket, input.Key)
		if err != nil {
			return errs.Wrap(err)
		}
		if err := os.WriteFile(input.Path, data, 0o644); err != nil {
			return errs.NewStackError(err)
		}
	}

	tbl, err := arrowops.ReadParquetFileAsTable(ctx, obj.allocator, input.Path)
	if err != nil {
		return errs.Wrap(err)
	}
	defer tbl.Release()

	result, err := obj.EvaluateTable(ctx, tbl)
	if err != nil {
		return err
	}
	defer result.Release()

	err = arrowops.WriteTableToParquetFile(ctx, result, output.Path)
	if err != nil {
		return errs.Wrap(err)
	}

	obj.logger.Info(
		"wrote output",
		slog.String("path", output.Path),
		slog.Int64("rows", result.NumRows()),
		slog.Int64("columns", result.NumCols()),
	)

	if output.Key != "" {
		if obj.objectStorage == nil {
			return errs.NewStackError(fmt.Errorf("%w| output %s/%s", ErrObjectStorageNotConfigured, output.Bucket, output.Key))
		}
		data, err := os.ReadFile(output.Path)
		if err != nil {
			return errs.NewStackError(err)
		}
		if err := obj.objectStorage.Upload(ctx, output.Bucket, output.Key, data); err != nil {
			return errs.Wrap(err)
		}
	}
	return nil
}

// Close stops every dispatcher, waiting for in-flight host calls.
func (obj *Engine) Close() {
	for _, d := range obj.dispatchers {
		d.Close()
	}
	if obj.keyStorage != nil {
		if err := obj.keyStorage.Close(); err != nil {
			obj.logger.Warn("failed to close key storage", slog.String("error", err.Error()))
		}
	}
}
