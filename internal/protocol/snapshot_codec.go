package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/annel0/arena-game/internal/game"
	"github.com/klauspost/compress/zstd"
)

// CompressionType способ упаковки тела кадра
type CompressionType byte

const (
	CompressionNone CompressionType = 0
	CompressionZSTD CompressionType = 1
)

// ContentType тип содержимого кадра снимка в HTTP
const ContentType = "application/x-arena-snapshot"

// DefaultCompressThreshold тела меньше этого размера не сжимаются
const DefaultCompressThreshold = 512

// ErrBadFrame кадр повреждён или имеет неизвестный формат
var ErrBadFrame = errors.New("protocol: bad snapshot frame")

// SnapshotCodec кодирует снимки игры в кадр: 1 байт CompressionType + JSON тело,
// сжатое zstd при размере от threshold.
type SnapshotCodec struct {
	threshold    int
	compressor   *zstd.Encoder
	decompressor *zstd.Decoder
}

// NewSnapshotCodec создаёт кодек. threshold <= 0 - DefaultCompressThreshold.
func NewSnapshotCodec(threshold int) (*SnapshotCodec, error) {
	if threshold <= 0 {
		threshold = DefaultCompressThreshold
	}

	compressor, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	decompressor, err := zstd.NewReader(nil)
	if err != nil {
		compressor.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	return &SnapshotCodec{
		threshold:    threshold,
		compressor:   compressor,
		decompressor: decompressor,
	}, nil
}

// Encode упаковывает снимок в кадр
func (c *SnapshotCodec) Encode(snapshot game.Snapshot) ([]byte, error) {
	body, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации снимка: %w", err)
	}

	if len(body) < c.threshold {
		return append([]byte{byte(CompressionNone)}, body...), nil
	}

	frame := make([]byte, 1, 1+len(body)/2)
	frame[0] = byte(CompressionZSTD)
	return c.compressor.EncodeAll(body, frame), nil
}

// Decode распаковывает кадр в снимок
func (c *SnapshotCodec) Decode(frame []byte) (game.Snapshot, error) {
	var snapshot game.Snapshot
	if len(frame) == 0 {
		return snapshot, fmt.Errorf("%w: empty frame", ErrBadFrame)
	}

	body := frame[1:]
	switch CompressionType(frame[0]) {
	case CompressionNone:
	case CompressionZSTD:
		decompressed, err := c.decompressor.DecodeAll(body, nil)
		if err != nil {
			return snapshot, fmt.Errorf("%w: %w", ErrBadFrame, err)
		}
		body = decompressed
	default:
		return snapshot, fmt.Errorf("%w: unknown compression %d", ErrBadFrame, frame[0])
	}

	if err := json.Unmarshal(body, &snapshot); err != nil {
		return snapshot, fmt.Errorf("%w: %w", ErrBadFrame, err)
	}
	return snapshot, nil
}

// Close освобождает ресурсы zstd
func (c *SnapshotCodec) Close() {
	c.compressor.Close()
	c.decompressor.Close()
}
