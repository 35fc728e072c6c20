package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/calyxdb/routineload/logger"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/kmsg"
)

var _ PartitionClient = (*KgoClient)(nil)

type KgoClientConfig struct {
	BootstrapServers []string
	ClientID         string
	PollTimeout      time.Duration
	MaxPollRecords   int
	FetchMaxBytes    int32

	Logger logger.Logger
}

func defaultConfig() KgoClientConfig {
	return KgoClientConfig{
		BootstrapServers: []string{"localhost:9092"},
		ClientID:         "routineload",
		PollTimeout:      time.Second,
		MaxPollRecords:   500,
		FetchMaxBytes:    16 << 20,
		Logger:           logger.NewNoopLogger(),
	}
}

type KgoOption func(*KgoClientConfig)

func WithBootstrapServers(servers []string) KgoOption {
	return func(cfg *KgoClientConfig) {
		cfg.BootstrapServers = servers
	}
}

func WithClientID(id string) KgoOption {
	return func(cfg *KgoClientConfig) {
		cfg.ClientID = id
	}
}

func WithPollTimeout(d time.Duration) KgoOption {
	return func(cfg *KgoClientConfig) {
		if d > 0 {
			cfg.PollTimeout = d
		}
	}
}

func WithMaxPollRecords(n int) KgoOption {
	return func(cfg *KgoClientConfig) {
		if n > 0 {
			cfg.MaxPollRecords = n
		}
	}
}

func WithFetchMaxBytes(n int32) KgoOption {
	return func(cfg *KgoClientConfig) {
		if n > 0 {
			cfg.FetchMaxBytes = n
		}
	}
}

func WithLogger(l logger.Logger) KgoOption {
	return func(cfg *KgoClientConfig) {
		cfg.Logger = l.With("client", "kgo")
	}
}

// KgoClient consumes explicitly assigned partitions through franz-go. It
// never joins a consumer group; the assignment carries the start offsets.
type KgoClient struct {
	client *kgo.Client
	config KgoClientConfig

	mu       sync.Mutex
	assigned bool

	logger logger.Logger
}

func NewKgoClient(opts ...KgoOption) (*KgoClient, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	kc := &KgoClient{config: cfg, logger: cfg.Logger}

	kgoOpts := []kgo.Opt{
		kgo.SeedBrokers(cfg.BootstrapServers...),
		kgo.ClientID(cfg.ClientID),
		kgo.FetchMaxBytes(cfg.FetchMaxBytes),
		kgo.WithLogger(newKgoLogger(kc.logger)),
	}

	client, err := kgo.NewClient(kgoOpts...)
	if err != nil {
		return nil, fmt.Errorf("create kgo client: %w", err)
	}

	kc.client = client

	return kc, nil
}

func (k *KgoClient) AssignPartitions(topic string, assignment Assignment) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.assigned {
		return fmt.Errorf("partitions already assigned")
	}
	if len(assignment) == 0 {
		return fmt.Errorf("empty assignment for topic %q", topic)
	}

	offsets := make(map[int32]kgo.Offset, len(assignment))
	for partition, offset := range assignment {
		switch offset {
		case OffsetStart:
			offsets[partition] = kgo.NewOffset().AtStart()
		case OffsetEnd:
			offsets[partition] = kgo.NewOffset().AtEnd()
		default:
			if offset < 0 {
				return fmt.Errorf("invalid start offset %d for partition %d", offset, partition)
			}
			offsets[partition] = kgo.NewOffset().At(offset)
		}
	}

	k.client.AddConsumePartitions(map[string]map[int32]kgo.Offset{topic: offsets})
	k.assigned = true

	k.logger.Debug("Partitions assigned", "topic", topic, "partitions", assignment.Partitions())

	return nil
}

func (k *KgoClient) Poll(ctx context.Context) ([]*Record, error) {
	ctx, cancel := context.WithTimeout(ctx, k.config.PollTimeout)
	defer cancel()

	fetches := k.client.PollRecords(ctx, k.config.MaxPollRecords)
	if errs := fetches.Errors(); len(errs) > 0 {
		for _, err := range errs {
			if !errors.Is(err.Err, context.DeadlineExceeded) && !errors.Is(err.Err, context.Canceled) {
				return nil, fmt.Errorf("poll partition %d: %w", err.Partition, err.Err)
			}
		}
	}

	return convertRecords(fetches.Records()), nil
}

// EndOffsets issues a ListOffsets request for the high watermark of each
// partition. Used for lag reporting when a load task starts.
func (k *KgoClient) EndOffsets(ctx context.Context, topic string, partitions []int32) (map[int32]int64, error) {
	req := kmsg.NewPtrListOffsetsRequest()
	reqTopic := kmsg.NewListOffsetsRequestTopic()
	reqTopic.Topic = topic
	for _, partition := range partitions {
		reqPartition := kmsg.NewListOffsetsRequestTopicPartition()
		reqPartition.Partition = partition
		reqPartition.Timestamp = -1 // latest
		reqTopic.Partitions = append(reqTopic.Partitions, reqPartition)
	}
	req.Topics = append(req.Topics, reqTopic)

	resp, err := req.RequestWith(ctx, k.client)
	if err != nil {
		return nil, fmt.Errorf("list offsets: %w", err)
	}

	out := make(map[int32]int64, len(partitions))
	for _, t := range resp.Topics {
		for _, p := range t.Partitions {
			if err := kerr.ErrorForCode(p.ErrorCode); err != nil {
				return nil, fmt.Errorf("list offsets partition %d: %w", p.Partition, err)
			}
			out[p.Partition] = p.Offset
		}
	}

	return out, nil
}

func (k *KgoClient) Close() {
	k.client.Close()
}

func convertRecords(records []*kgo.Record) []*Record {
	converted := make([]*Record, len(records))
	for i, r := range records {
		converted[i] = &Record{
			Payload:   r.Value,
			Topic:     r.Topic,
			Partition: r.Partition,
			Offset:    r.Offset,
			Timestamp: r.Timestamp,
		}
	}

	return converted
}
