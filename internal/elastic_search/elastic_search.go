package elastic_search

import (
	"context"
	"errors"
	"fmt"
	"github.com/ZilDuck/nft-marketplace/internal/config"
	"github.com/ZilDuck/nft-marketplace/internal/entity"
	"github.com/aws/aws-sdk-go/aws/credentials"
	v4 "github.com/aws/aws-sdk-go/aws/signer/v4"
	"github.com/olivere/elastic/v7"
	"github.com/patrickmn/go-cache"
	"github.com/sha1sum/aws_signing_client"
	"go.uber.org/zap"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var ErrTooManyRequests = errors.New("elastic: Error 429 (Too Many Requests)")

type Index interface {
	GetClient() *elastic.Client
	IndexName(i Indices) string

	InstallMappings() error

	Add(activity entity.Activity)
	AddIndexRequest(index string, entity entity.Entity)
	HasRequest(entity entity.Entity) bool
	GetRequests() []Request
	GetRequest(id string) *Request
	ClearRequests()

	BatchPersist() bool
	Persist() (int, error)
}

type index struct {
	client  *elastic.Client
	cache   *cache.Cache
	cfg     config.ElasticSearchConfig
	network string
	name    string
}

type Request struct {
	Index  string
	Entity entity.Entity
}

const persistAttempts int = 3

func New(cfg *config.Config) (Index, error) {
	client, err := newClient(cfg.ElasticSearch, cfg.Aws)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("ElasticSearch: Failed to create client")
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

func NewWithClient(client *elastic.Client, cfg *config.Config) Index {
	return index{
		client:  client,
		cache:   cache.New(5*time.Minute, 10*time.Minute),
		cfg:     cfg.ElasticSearch,
		network: cfg.Network,
		name:    cfg.Index,
	}
}

func newClient(cfg config.ElasticSearchConfig, awsCfg config.AwsConfig) (*elastic.Client, error) {
	opts := []elastic.ClientOptionFunc{
		elastic.SetURL(cfg.Hosts...),
		elastic.SetSniff(cfg.Sniff),
		elastic.SetHealthcheck(cfg.HealthCheck),
	}

	if cfg.Debug {
		opts = append(opts, elastic.SetTraceLog(ElasticLogger{}))
	}

	if cfg.Aws {
		creds := credentials.NewStaticCredentials(awsCfg.AccessKey, awsCfg.SecretKey, awsCfg.Token)
		awsClient, err := aws_signing_client.New(v4.NewSigner(creds), nil, "es", awsCfg.Region)
		if err != nil {
			return nil, err
		}

		opts = append(opts, elastic.SetHttpClient(awsClient))
		opts = append(opts, elastic.SetScheme("https"))
		return elastic.NewClient(opts...)
	}

	if cfg.Username != "" {
		opts = append(opts, elastic.SetBasicAuth(cfg.Username, cfg.Password))
	}

	return elastic.NewClient(opts...)
}

func (i index) GetClient() *elastic.Client {
	return i.client
}

func (i index) IndexName(idx Indices) string {
	return idx.Get(i.network, i.name)
}

func (i index) InstallMappings() error {
	zap.L().Info("ElasticSearch: Install Mappings")

	files, err := os.ReadDir(i.cfg.MappingDir)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("ElasticSearch: Elastic mappings directory error")
		return err
	}

	for _, f := range files {
		if f.IsDir() {
			continue
		}

		b, err := os.ReadFile(filepath.Join(i.cfg.MappingDir, f.Name()))
		if err != nil {
			zap.L().With(zap.Error(err), zap.String("file", f.Name())).Error("ElasticSearch: Elastic mappings file error")
			return err
		}

		idx := Indices(strings.TrimSuffix(f.Name(), filepath.Ext(f.Name()))).Get(i.network, i.name)
		if err = i.createIndex(idx, b); err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx, err)
		}
	}

	return nil
}

func (i index) createIndex(index string, mapping []byte) error {
	ctx := context.Background()

	exists, err := i.client.IndexExists(index).Do(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	createIndex, err := i.client.CreateIndex(index).BodyString(string(mapping)).Do(ctx)
	if err != nil {
		return err
	}

	if createIndex.Acknowledged {
		zap.S().Infof("ElasticSearch: Created index %s", index)
	}

	return nil
}

func (i index) Add(activity entity.Activity) {
	i.AddIndexRequest(ActivityIndex.Get(i.network, i.name), activity)
}

func (i index) AddIndexRequest(index string, entity entity.Entity) {
	zap.L().With(
		zap.String("index", index),
		zap.String("slug", entity.Slug()),
	).Debug("ElasticSearch: AddIndexRequest")

	i.cache.Set(entity.Slug(), Request{index, entity}, cache.DefaultExpiration)
}

func (i index) HasRequest(entity entity.Entity) bool {
	_, found := i.cache.Get(entity.Slug())

	return found
}

func (i index) GetRequests() []Request {
	requests := make([]Request, 0)

	for _, item := range i.cache.Items() {
		requests = append(requests, item.Object.(Request))
	}

	return requests
}

func (i index) GetRequest(id string) *Request {
	if item, found := i.cache.Get(id); found {
		req := item.(Request)
		return &req
	}

	return nil
}

func (i index) ClearRequests() {
	i.cache.Flush()
}

func (i index) BatchPersist() bool {
	if i.cache.ItemCount() < i.cfg.BulkPersistCount {
		return false
	}

	start := time.Now()
	actions, err := i.Persist()
	if err != nil {
		zap.L().With(zap.Error(err)).Error("ElasticSearch: Failed to persist data")
		return false
	}

	zap.L().With(
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("actions", actions),
	).Info("ElasticSearch: Persisting data")

	return true
}

func (i index) Persist() (int, error) {
	requests := i.GetRequests()
	if len(requests) == 0 {
		return 0, nil
	}

	total := 0
	bulk := i.client.Bulk()
	for _, r := range requests {
		bulk.Add(elastic.NewBulkIndexRequest().Index(r.Index).Id(r.Entity.Slug()).Doc(r.Entity))

		if bulk.NumberOfActions() >= i.cfg.BulkPersistCount {
			n, err := i.persist(bulk, 1)
			total += n
			if err != nil {
				return total, err
			}
			bulk = i.client.Bulk()
		}
	}

	if bulk.NumberOfActions() != 0 {
		n, err := i.persist(bulk, 1)
		total += n
		if err != nil {
			return total, err
		}
	}

	return total, nil
}

// persist sends one bulk request and drops the persisted requests from the buffer.
// Failed items stay buffered for the next flush.
func (i index) persist(bulk *elastic.BulkService, attempt int) (int, error) {
	actions := bulk.NumberOfActions()
	zap.S().Debugf("ElasticSearch: Persisting %d actions", actions)

	response, err := bulk.Refresh(i.cfg.Refresh).Do(context.Background())
	if err != nil {
		if attempt >= persistAttempts {
			zap.L().With(zap.Error(err)).Error("ElasticSearch: Failed to persist requests")
			return 0, err
		}
		wait := time.Second
		if err.Error() == ErrTooManyRequests.Error() {
			zap.L().With(zap.Error(err)).Warn("ElasticSearch: 429 (Too Many Requests)")
			wait = 5 * time.Second
		}
		time.Sleep(wait)
		return i.persist(bulk, attempt+1)
	}

	failed := make(map[string]bool)
	for _, item := range response.Failed() {
		zap.L().With(
			zap.Any("error", item.Error),
			zap.String("index", item.Index),
			zap.String("id", item.Id),
		).Error("ElasticSearch: Failed to persist request")
		failed[item.Id] = true
	}

	for _, item := range response.Items {
		for _, result := range item {
			if !failed[result.Id] {
				i.cache.Delete(result.Id)
			}
		}
	}

	return actions - len(failed), nil
}
