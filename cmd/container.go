// cmd/container.go
//
// Composition root. Owns infrastructure (DB, Redis, file storage) and wires
// the extraction stack and the document job services on top of it.
package main

import (
	"context"
	"time"

	"github.com/Abraxas-365/pagelift/pkg/config"
	"github.com/Abraxas-365/pagelift/pkg/docjob"
	"github.com/Abraxas-365/pagelift/pkg/docstore"
	"github.com/Abraxas-365/pagelift/pkg/docstore/docstorememory"
	"github.com/Abraxas-365/pagelift/pkg/docstore/docstorepg"
	"github.com/Abraxas-365/pagelift/pkg/extraction"
	"github.com/Abraxas-365/pagelift/pkg/fsx"
	"github.com/Abraxas-365/pagelift/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/pagelift/pkg/fsx/fsxs3"
	"github.com/Abraxas-365/pagelift/pkg/jobx"
	"github.com/Abraxas-365/pagelift/pkg/jobx/jobxredis"
	"github.com/Abraxas-365/pagelift/pkg/logx"
	"github.com/Abraxas-365/pagelift/pkg/native"
	"github.com/Abraxas-365/pagelift/pkg/native/nativedocx"
	"github.com/Abraxas-365/pagelift/pkg/native/nativeimage"
	"github.com/Abraxas-365/pagelift/pkg/native/nativepdf"
	"github.com/Abraxas-365/pagelift/pkg/ocr"
	"github.com/Abraxas-365/pagelift/pkg/ocr/providers/ocrbedrock"
	"github.com/Abraxas-365/pagelift/pkg/ocr/providers/ocrgemini"
	"github.com/Abraxas-365/pagelift/pkg/ocr/providers/ocrlocal"
	"github.com/Abraxas-365/pagelift/pkg/pipeline"
	"github.com/Abraxas-365/pagelift/pkg/pipeline/pipelineredis"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Container holds shared infrastructure and the composed services.
type Container struct {
	Config *config.Config

	// Infrastructure
	DB         *sqlx.DB
	Redis      *redis.Client
	FileSystem fsx.FileSystem
	S3Client   *s3.Client

	// Extraction
	Loader       *native.Loader
	Orchestrator *ocr.Orchestrator
	Pipeline     *pipeline.Pipeline

	// Document jobs
	Documents docstore.Repository
	Progress  *pipelineredis.Publisher
	Jobs      *jobx.Client
	Service   *docjob.Service
	Worker    *docjob.Worker
	Handlers  *docjob.Handlers
}

// NewContainer wires everything the HTTP server and the workers need
func NewContainer(cfg *config.Config) *Container {
	logx.Info("Initializing application container...")

	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initExtraction()
	c.initDocumentJobs()

	logx.Info("Application container initialized")
	return c
}

// NewExtractionContainer wires only the extraction stack, for one-shot runs
// that need neither Redis nor a database.
func NewExtractionContainer(cfg *config.Config) *Container {
	c := &Container{Config: cfg}
	c.initExtraction()
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure() {
	logx.Info("Initializing infrastructure...")

	// 1. Database (optional)
	if c.Config.Database.Enabled() {
		db, err := sqlx.Connect("postgres", c.Config.Database.DSN())
		if err != nil {
			logx.Fatalf("Failed to connect to database: %v", err)
		}
		db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
		db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
		db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
		c.DB = db
		logx.Info("  Database connected")
	} else {
		logx.Warn("  DB_HOST not set, document records are kept in memory")
	}

	// 2. Redis
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
		logx.Fatalf("Failed to connect to Redis: %v (Redis is required)", err)
	}
	logx.Info("  Redis connected")

	// 3. File storage
	c.initFileStorage()
}

func (c *Container) initFileStorage() {
	storage := c.Config.Storage

	switch storage.Mode {
	case config.StorageS3:
		awsCfg, err := awsConfig.LoadDefaultConfig(context.TODO(), awsConfig.WithRegion(storage.AWSRegion))
		if err != nil {
			logx.Fatalf("Unable to load AWS SDK config: %v", err)
		}
		c.S3Client = s3.NewFromConfig(awsCfg)
		c.FileSystem = fsxs3.NewS3FileSystem(c.S3Client, storage.AWSBucket, storage.Prefix)
		logx.Infof("  S3 file system configured (bucket: %s, region: %s)", storage.AWSBucket, storage.AWSRegion)

	default:
		localFS, err := fsxlocal.NewLocalFileSystem(storage.UploadDir)
		if err != nil {
			logx.Fatalf("Failed to initialize local file system: %v", err)
		}
		c.FileSystem = localFS
		logx.Infof("  Local file system configured (path: %s)", localFS.BasePath())
	}
}

// ---------------------------------------------------------------------------
// Extraction stack
// ---------------------------------------------------------------------------

func (c *Container) initExtraction() {
	render := c.Config.Render

	pdf := nativepdf.New(nativepdf.NewPoppler(render.PdftoppmPath, render.DPI, render.Timeout))
	docx := nativedocx.New(nativedocx.NewLibreOffice(render.SofficePath, render.ConvertTimeout), pdf)
	img := nativeimage.New()

	c.Loader = native.NewLoader().
		Register(native.FormatPDF, pdf).
		Register(native.FormatDOCX, docx).
		Register(native.FormatPNG, img).
		Register(native.FormatJPEG, img).
		Register(native.FormatWEBP, img)

	c.Orchestrator = ocr.New(c.ocrBackends(), ocr.WithMaxConcurrent(int64(c.Config.OCR.MaxConcurrent)))
	logx.Infof("  OCR chain: %v", c.Orchestrator.Backends())

	observers := []pipeline.Observer{pipeline.LogObserver{}}
	if c.Redis != nil {
		c.Progress = pipelineredis.NewPublisher(c.Redis, pipelineredis.WithTTL(c.Config.Redis.ProgressTTL))
		observers = append(observers, c.Progress)
	}

	c.Pipeline = pipeline.New(
		c.Loader,
		extraction.NewController(c.Orchestrator),
		pipeline.Options{
			Parallelism: c.Config.Pipeline.Parallelism,
			MaxPages:    render.MaxPages,
		},
		observers...,
	)
}

// ocrBackends builds the chain: local service, managed cloud, public API
func (c *Container) ocrBackends() []ocr.Backend {
	cfg := c.Config.OCR
	backends := []ocr.Backend{
		ocrlocal.New(cfg.LocalURL, ocrlocal.WithTimeouts(cfg.LocalProbeTimeout, cfg.LocalTimeout)),
	}

	switch cfg.ManagedProvider {
	case config.ManagedVertex:
		backends = append(backends, ocrgemini.NewVertex(
			ocrgemini.VertexConfig{
				Project:         cfg.Vertex.Project,
				Location:        cfg.Vertex.Location,
				CredentialsJSON: cfg.Vertex.CredentialsJSON,
				CredentialsFile: cfg.Vertex.CredentialsFile,
			},
			ocrgemini.WithModel(cfg.Vertex.Model),
			ocrgemini.WithTimeout(cfg.Timeout),
		))
	case config.ManagedBedrock:
		backends = append(backends, ocrbedrock.New(
			ocrbedrock.WithRegion(cfg.Bedrock.Region),
			ocrbedrock.WithModel(cfg.Bedrock.Model),
			ocrbedrock.WithTimeout(cfg.Timeout),
		))
	}

	backends = append(backends, ocrgemini.NewAPIKey(
		cfg.GeminiAPIKey,
		ocrgemini.WithModel(cfg.GeminiModel),
		ocrgemini.WithTimeout(cfg.Timeout),
		ocrgemini.WithRateLimit(cfg.GeminiRPS),
	))
	return backends
}

// ---------------------------------------------------------------------------
// Document jobs
// ---------------------------------------------------------------------------

func (c *Container) initDocumentJobs() {
	if c.DB != nil {
		repo := docstorepg.NewPostgresDocumentRepository(c.DB)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := repo.EnsureSchema(ctx); err != nil {
			logx.Fatalf("Failed to prepare documents table: %v", err)
		}
		c.Documents = repo
	} else {
		c.Documents = docstorememory.NewMemoryRepository()
	}

	jc := c.Config.Jobx
	c.Jobs = jobx.NewClient(
		jobxredis.NewRedisQueue(c.Redis),
		jobx.WithQueues(jc.Queues...),
		jobx.WithConcurrency(jc.Concurrency),
		jobx.WithPollInterval(jc.PollInterval),
		jobx.WithShutdownTimeout(jc.ShutdownTimeout),
		jobx.WithDequeueTimeout(jc.DequeueTimeout),
		jobx.WithDefaultRetryDelay(jc.DefaultRetryDelay),
	)

	queue := jobx.DefaultQueue
	if len(jc.Queues) > 0 {
		queue = jc.Queues[0]
	}

	c.Service = docjob.NewService(c.Documents, c.FileSystem, c.Jobs, c.Progress, queue)
	c.Worker = docjob.NewWorker(c.Documents, c.FileSystem, c.Pipeline)
	c.Worker.Register(c.Jobs)
	c.Handlers = docjob.NewHandlers(c.Service)
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// StartBackgroundServices runs the job workers until ctx is cancelled. The
// returned channel closes once they have drained.
func (c *Container) StartBackgroundServices(ctx context.Context) <-chan struct{} {
	logx.Info("Starting background services...")
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := c.Jobs.Start(ctx); err != nil {
			logx.WithError(err).Error("Job workers stopped with error")
		}
	}()
	return done
}

func (c *Container) Cleanup() {
	logx.Info("Cleaning up resources...")

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		}
	}
}
