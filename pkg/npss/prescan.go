package npss

import (
	"errors"

	"github.com/bft-labs/npss/internal/domain"
	"github.com/bft-labs/npss/internal/ports"
)

// Summary is what a prescan learns about a sample file.
type Summary struct {
	SampleCount   int
	LastTimestamp int64
}

// Prescan reads every sample of file through an independent stream to count
// them and find the last timestamp. Progress is reported against an estimate
// of file size / avgRecordSize.
func Prescan(file ports.FileProvider, decode ports.StreamDecoder, progress ports.ProgressSink, avgRecordSize int64) (sum Summary, err error) {
	guess := 0
	if size, err := file.Size(); err == nil && avgRecordSize > 0 {
		guess = int(size / avgRecordSize)
	}

	rc, err := file.Open()
	if err != nil {
		return Summary{}, domain.WrapIO("open "+file.Name(), err)
	}
	stream, err := decode(rc)
	if err != nil {
		rc.Close()
		return Summary{}, domain.WrapIO("decode "+file.Name(), err)
	}
	defer closeStream(stream, &err)

	progress.Start(guess)
	defer progress.Finish()

	for {
		sample, rerr := stream.ReadSample()
		if errors.Is(rerr, ports.ErrEndOfSamples) {
			return sum, nil
		}
		if rerr != nil {
			return Summary{}, domain.WrapIO("prescan", rerr)
		}
		sum.SampleCount++
		sum.LastTimestamp = sample.Timestamp
		if sum.SampleCount < guess {
			progress.Progress(sum.SampleCount)
		}
	}
}
