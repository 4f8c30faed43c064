package downloader

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"time"

	"cfmods/fsutil"

	"go.uber.org/zap"
)

// ChunkSize is the read size of the transfer loop.
const ChunkSize = 65535

// maxPrealloc caps the buffer reserved up front from Content-Length.
const maxPrealloc = 256 << 20

// Opener starts an HTTP GET for a download URL.
type Opener interface {
	Open(ctx context.Context, url string) (*http.Response, error)
}

// Result describes a committed download.
type Result struct {
	Path  string
	Bytes int64
	SHA1  string
}

// Downloader streams artifacts into memory and commits them only when the
// full declared length arrived.
type Downloader struct {
	opener   Opener
	observer Observer
	log      *zap.SugaredLogger
	now      func() time.Time
}

// New creates a Downloader. A nil observer discards progress.
func New(opener Opener, observer Observer, log *zap.SugaredLogger) *Downloader {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Downloader{
		opener:   opener,
		observer: observer,
		log:      log,
		now:      time.Now,
	}
}

// Download fetches url and writes it to dest, replacing any existing file.
// The parent directory of dest must exist. On any error nothing is written.
func (d *Downloader) Download(ctx context.Context, url, dest, label string) (Result, error) {
	d.log.Infow("Preparing to download", "label", label, "url", url)

	resp, err := d.opener.Open(ctx, url)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, newError(ErrorCancelled, url, "download cancelled", ctx.Err())
		}
		return Result{}, newError(ErrorNetworkFailure, url, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, newError(ErrorBadStatus, url, "unexpected status "+resp.Status, nil)
	}
	total := resp.ContentLength
	if total < 0 {
		return Result{}, newError(ErrorMissingLength, url, "response has no Content-Length", nil)
	}

	data, err := d.stream(ctx, resp.Body, url, label, total)
	if err != nil {
		return Result{}, err
	}

	d.log.Infow("Saving contents", "path", dest)
	if _, err := fsutil.WriteAtomic(dest, bytes.NewReader(data), 0644); err != nil {
		return Result{}, newError(ErrorFileSystem, url, "could not save "+dest, err)
	}

	sum := sha1.Sum(data)
	return Result{Path: dest, Bytes: int64(len(data)), SHA1: hex.EncodeToString(sum[:])}, nil
}

func (d *Downloader) stream(ctx context.Context, body io.Reader, url, label string, total int64) (data []byte, err error) {
	var buf bytes.Buffer
	if total > 0 && total <= maxPrealloc {
		buf.Grow(int(total))
	}

	start := d.now()
	rate := newRateMeter(start)
	p := Progress{Label: label, Total: total}
	d.observer.Start(label, total)
	defer func() { d.observer.Finish(p, err) }()

	chunk := make([]byte, ChunkSize)
	for {
		if ctx.Err() != nil {
			return nil, newError(ErrorCancelled, url, "download cancelled", ctx.Err())
		}

		n, rerr := body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			p.Written += int64(n)
			now := d.now()
			p.Elapsed = now.Sub(start)
			p.BytesPerSecond = rate.add(now, p.Written)
			d.observer.Update(p)
		}

		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			if ctx.Err() != nil {
				return nil, newError(ErrorCancelled, url, "download cancelled", ctx.Err())
			}
			if errors.Is(rerr, io.ErrUnexpectedEOF) {
				de := newError(ErrorLengthMismatch, url, "stream ended early", rerr)
				de.Expected, de.Received = total, p.Written
				return nil, de
			}
			return nil, newError(ErrorNetworkFailure, url, "reading body", rerr)
		}
	}

	if p.Written != total {
		de := newError(ErrorLengthMismatch, url, "received byte count differs from Content-Length", nil)
		de.Expected, de.Received = total, p.Written
		return nil, de
	}
	return buf.Bytes(), nil
}
