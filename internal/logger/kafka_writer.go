package logger

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/infra/producer"
	"github.com/segmentio/kafka-go"
)

// KafkaWriter 把 zerolog 輸出的每一行送到 kafka
type KafkaWriter struct {
	w       producer.Writer
	timeout time.Duration
	logId   atomic.Uint64
}

func NewKafkaWriter(w producer.Writer) *KafkaWriter {
	return &KafkaWriter{
		w:       w,
		timeout: 5 * time.Second,
	}
}

func (kw *KafkaWriter) Write(p []byte) (n int, err error) {
	if kw == nil || kw.w == nil {
		return 0, fmt.Errorf("kafka logger is not init")
	}

	// key 用流水號, 讓 log 平均分配到各 partition
	kbuf := make([]byte, 8)
	binary.BigEndian.PutUint64(kbuf, kw.logId.Add(1))

	// zerolog 會重用 p, 必須複製
	value := make([]byte, len(p))
	copy(value, p)

	ctx, cancel := context.WithTimeout(context.Background(), kw.timeout)
	defer cancel()
	err = kw.w.WriteMessages(ctx, kafka.Message{
		Key:   kbuf,
		Value: value,
	})
	if err != nil {
		return 0, err
	}

	return len(p), nil
}

func (kw *KafkaWriter) Close() error {
	return kw.w.Close()
}
