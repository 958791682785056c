package framebuffer

import (
	"errors"
	"fmt"
	"io"
)

// Translate reads the producer header from src, writes the matching legacy
// header to sink in a single write and returns the payload size. Nothing
// reaches sink unless the whole upstream header was read and recognized.
func Translate(src io.Reader, sink io.Writer) (uint32, error) {
	_, header, err := TranslateHeader(src, sink)
	if err != nil {
		return 0, err
	}
	return header.Size, nil
}

// TranslateHeader is Translate returning both headers.
func TranslateHeader(src io.Reader, sink io.Writer) (UpstreamHeader, LegacyHeader, error) {
	var raw [UpstreamHeaderSize]byte
	if n, err := io.ReadFull(src, raw[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return UpstreamHeader{}, LegacyHeader{}, fmt.Errorf("%w: got %d of %d bytes", ErrTruncatedHeader, n, UpstreamHeaderSize)
		}
		return UpstreamHeader{}, LegacyHeader{}, fmt.Errorf("%w: %v", ErrTruncatedHeader, err)
	}

	up, err := ParseUpstreamHeader(raw[:])
	if err != nil {
		return UpstreamHeader{}, LegacyHeader{}, err
	}

	header, err := NewLegacyHeader(up)
	if err != nil {
		return up, LegacyHeader{}, err
	}

	if err := writeExactly(sink, mustMarshal(header)); err != nil {
		return up, LegacyHeader{}, fmt.Errorf("header: %w", err)
	}
	return up, header, nil
}

func mustMarshal(h LegacyHeader) []byte {
	b, _ := h.MarshalBinary()
	return b
}

// writeExactly performs one write and fails unless all of b was consumed.
func writeExactly(sink io.Writer, b []byte) error {
	n, err := sink.Write(b)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSinkWrite, err)
	}
	if n != len(b) {
		return fmt.Errorf("%w: short write %d of %d bytes", ErrSinkWrite, n, len(b))
	}
	return nil
}
