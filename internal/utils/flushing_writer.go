package utils

import (
	"io"
	"sync"

	"go.uber.org/zap/zapcore"
)

// FlushingWriter serializes writes and flushes buffered destinations after each
// write so log lines interleave correctly with git output.
type FlushingWriter struct {
	writer io.Writer
	mutex  sync.Mutex
}

// NewFlushingWriter wraps writer as a zapcore.WriteSyncer.
func NewFlushingWriter(writer io.Writer) zapcore.WriteSyncer {
	if flushingWriter, alreadyWrapped := writer.(*FlushingWriter); alreadyWrapped {
		return flushingWriter
	}
	return &FlushingWriter{writer: writer}
}

// Write delegates to the underlying writer and flushes it when possible.
func (flushingWriter *FlushingWriter) Write(data []byte) (int, error) {
	if flushingWriter == nil || flushingWriter.writer == nil {
		return 0, nil
	}

	flushingWriter.mutex.Lock()
	defer flushingWriter.mutex.Unlock()

	bytesWritten, writeError := flushingWriter.writer.Write(data)
	if writeError != nil {
		return bytesWritten, writeError
	}

	if flushableWriter, implementsFlush := flushingWriter.writer.(interface{ Flush() error }); implementsFlush {
		if flushError := flushableWriter.Flush(); flushError != nil {
			return bytesWritten, flushError
		}
	}

	return bytesWritten, nil
}

// Sync forwards to the underlying writer when it supports syncing.
func (flushingWriter *FlushingWriter) Sync() error {
	if flushingWriter == nil || flushingWriter.writer == nil {
		return nil
	}

	flushingWriter.mutex.Lock()
	defer flushingWriter.mutex.Unlock()

	if syncer, implementsSync := flushingWriter.writer.(interface{ Sync() error }); implementsSync {
		return syncer.Sync()
	}
	return nil
}
