// htstools: streaming statistics, filtering and interval comparison
// for high-throughput sequencing files.
// Copyright (c) 2026 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/htstools/blob/master/LICENSE.txt>.

// Package bgzf reads and writes the blocked gzip format used by BAM
// files, see http://samtools.github.io/hts-specs/SAMv1.pdf - Section 4.1.
//
// Blocks are inflated and deflated in parallel in a pargo pipeline;
// the byte stream seen through Read and Write is strictly ordered.
package bgzf

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"sync"

	"github.com/exascience/pargo/pipeline"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
)

// IsGzip determines if the the given byte scanner produces
// a gzip file. It uses ReadByte and UnreadByte to check
// only the initial byte from the input.
func IsGzip(scanner io.ByteScanner) (bool, error) {
	b, err := scanner.ReadByte()
	if err != nil {
		return false, err
	}
	if err := scanner.UnreadByte(); err != nil {
		return false, err
	}
	return b == 0x1f, nil
}

// IsBGZF reports whether prefix starts with a gzip member header that
// carries the BC extra subfield of a BGZF block.
func IsBGZF(prefix []byte) bool {
	if len(prefix) < 18 || prefix[0] != 0x1f || prefix[1] != 0x8b || prefix[2] != 8 || prefix[3]&4 == 0 {
		return false
	}
	xlen := int(binary.LittleEndian.Uint16(prefix[10:12]))
	extra := prefix[12:]
	if len(extra) > xlen {
		extra = extra[:xlen]
	}
	for i := 0; i+4 <= len(extra); {
		slen := int(binary.LittleEndian.Uint16(extra[i+2 : i+4]))
		if extra[i] == 'B' && extra[i+1] == 'C' && slen == 2 {
			return true
		}
		i += 4 + slen
	}
	return false
}

// maxBlockSize is the largest uncompressed payload per block. It leaves
// room for incompressible data so that a block never exceeds 64 KiB.
const maxBlockSize = 0xff00

// blockBufferSize bounds both compressed and uncompressed block buffers.
const blockBufferSize = 0x10000

var eofMarker = []byte{
	0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0xff, 0x06, 0x00,
	0x42, 0x43, 0x02, 0x00, 0x1b, 0x00,
	0x03, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
}

type (
	block struct {
		Data  []byte
		Crc32 uint32
		Size  uint32
	}

	// Reader reads in parallel from a BGZF file.
	Reader struct {
		err     error
		r       io.Reader
		gz      *gzip.Reader
		p       pipeline.Pipeline
		w       sync.WaitGroup
		channel chan *block
		ctx     context.Context
		cancel  func()
		data    interface{}
		index   int
		current *block
	}

	blockSource Reader
)

var blockPool = sync.Pool{New: func() interface{} {
	return &block{Data: make([]byte, 0, blockBufferSize)}
}}

func (src *blockSource) readBlock() (b *block, err error) {
	var slen int
	for i := 0; i+4 <= len(src.gz.Extra); i += 4 + slen {
		slen = int(binary.LittleEndian.Uint16(src.gz.Extra[i+2 : i+4]))
		if src.gz.Extra[i] != 'B' || src.gz.Extra[i+1] != 'C' || slen != 2 || i+6 > len(src.gz.Extra) {
			continue
		}
		bsize := int(binary.LittleEndian.Uint16(src.gz.Extra[i+4 : i+6]))
		cdataSize := bsize - len(src.gz.Extra) - 19
		if cdataSize < 0 || cdataSize > blockBufferSize {
			return nil, fmt.Errorf("invalid BGZF block size %v", bsize+1)
		}
		b = blockPool.Get().(*block)
		b.Data = b.Data[:cdataSize]
		if _, err = io.ReadFull(src.r, b.Data); err != nil {
			return nil, noEOF(err)
		}
		var tail [8]byte
		if _, err = io.ReadFull(src.r, tail[:]); err != nil {
			return nil, noEOF(err)
		}
		b.Crc32 = binary.LittleEndian.Uint32(tail[0:4])
		b.Size = binary.LittleEndian.Uint32(tail[4:8])
		if b.Size > blockBufferSize {
			return nil, fmt.Errorf("invalid uncompressed BGZF block size %v", b.Size)
		}
		err = src.gz.Reset(src.r)
		if err == io.EOF {
			if len(b.Data) != 2 || b.Data[0] != 3 || b.Data[1] != 0 || b.Crc32 != 0 || b.Size != 0 {
				err = errors.New("invalid BGZF file: does not end in proper EOF marker")
			}
		} else if err != nil {
			err = fmt.Errorf("%w in BGZF block header", err)
		}
		return b, err
	}
	return nil, errors.New("missing BC extra subfield in BGZF header")
}

func noEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// Err implements the corresponding method of pipeline.Source
func (src *blockSource) Err() error {
	if src.err != io.EOF {
		return src.err
	}
	return nil
}

// Prepare implements the corresponding method of pipeline.Source
func (src *blockSource) Prepare(_ context.Context) (size int) {
	return -1
}

// Fetch implements the corresponding method of pipeline.Source
func (src *blockSource) Fetch(size int) (fetched int) {
	if src.err != nil {
		return 0
	}
	b, err := src.readBlock()
	if err != nil {
		src.err = err
		src.data = nil
		return 0
	}
	src.data = b
	return 1
}

// Data implements the corresponding method of pipeline.Source
func (src *blockSource) Data() interface{} {
	return src.data
}

var flateReaderPool sync.Pool

func inflate(p *pipeline.Pipeline, b *block) *block {
	blockReader := bytes.NewReader(b.Data)
	var flateReader io.ReadCloser
	if pooled := flateReaderPool.Get(); pooled == nil {
		flateReader = flate.NewReader(blockReader)
	} else {
		flateReader = pooled.(io.ReadCloser)
		if err := flateReader.(flate.Resetter).Reset(blockReader, nil); err != nil {
			flateReader = flate.NewReader(blockReader)
		}
	}
	uncompressed := blockPool.Get().(*block)
	uncompressed.Data = uncompressed.Data[:int(b.Size)]
	if _, err := io.ReadFull(flateReader, uncompressed.Data); err != nil {
		p.SetErr(noEOF(err))
	} else if crc32.ChecksumIEEE(uncompressed.Data) != b.Crc32 {
		p.SetErr(errors.New("invalid CRC-32 value for a data block in a BGZF file"))
	}
	if err := flateReader.Close(); err != nil {
		p.SetErr(err)
	}
	flateReaderPool.Put(flateReader)
	blockPool.Put(b)
	return uncompressed
}

// NewReader returns a Reader for the given flate.Reader.
// The gzip header of the first block is read immediately.
func NewReader(r flate.Reader) (*Reader, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w in bgzf.NewReader", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	bgzf := &Reader{
		r:       r,
		gz:      gz,
		channel: make(chan *block, 1),
		ctx:     ctx,
		cancel:  cancel,
	}
	bgzf.p.Source((*blockSource)(bgzf))
	bgzf.p.Add(pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
		return inflate(&bgzf.p, data.(*block))
	})), pipeline.StrictOrd(pipeline.ReceiveAndFinalize(func(_ int, data interface{}) interface{} {
		select {
		case <-bgzf.ctx.Done():
		case bgzf.channel <- data.(*block):
		}
		return nil
	}, func() {
		close(bgzf.channel)
	})))
	bgzf.w.Add(1)
	go func() {
		defer bgzf.w.Done()
		bgzf.p.Run()
	}()
	return bgzf, nil
}

// Close implements the corresponding method of io.Closer.
// It does not close the underlying reader.
func (bgzf *Reader) Close() error {
	bgzf.cancel()
	bgzf.w.Wait()
	if err := bgzf.gz.Close(); err != nil {
		return err
	}
	return bgzf.p.Err()
}

func (bgzf *Reader) fetchBlock() error {
	select {
	case <-bgzf.ctx.Done():
		if bgzf.err != nil {
			return bgzf.err
		}
		return bgzf.ctx.Err()
	case b, ok := <-bgzf.channel:
		if !ok {
			// The channel is closed once the pipeline has finished, so
			// both error fields are stable here.
			if err := bgzf.p.Err(); err != nil {
				return err
			}
			if bgzf.err != nil {
				return bgzf.err
			}
			return io.EOF
		}
		bgzf.index = 0
		bgzf.current = b
		return nil
	}
}

// Read implements the corresponding method of io.Reader
func (bgzf *Reader) Read(p []byte) (n int, err error) {
	for bgzf.current == nil || bgzf.index == len(bgzf.current.Data) {
		if bgzf.current != nil {
			blockPool.Put(bgzf.current)
			bgzf.current = nil
		}
		if err = bgzf.fetchBlock(); err != nil {
			return
		}
	}
	n = copy(p, bgzf.current.Data[bgzf.index:])
	bgzf.index += n
	return
}

type (
	bytesBlock struct {
		bytes []byte
	}

	// Writer writes in parallel to a BGZF file.
	Writer struct {
		w       io.Writer
		p       pipeline.Pipeline
		wait    sync.WaitGroup
		block   *bytesBlock
		channel chan *bytesBlock
		data    interface{}
	}

	blockSink Writer
)

func (*blockSink) Err() error {
	return nil
}

func (sink *blockSink) Prepare(_ context.Context) (size int) {
	return -1
}

func (sink *blockSink) Fetch(size int) (fetched int) {
	if b, ok := <-sink.channel; ok {
		sink.data = b
		return 1
	}
	sink.data = nil
	return 0
}

func (sink *blockSink) Data() interface{} {
	return sink.data
}

var (
	bytesPool = sync.Pool{New: func() interface{} {
		return &bytesBlock{bytes: make([]byte, 0, blockBufferSize)}
	}}

	flateWriterPool sync.Pool
)

func deflate(p *pipeline.Pipeline, b *bytesBlock, level int) *bytesBlock {
	gzBytes := bytesPool.Get().(*bytesBlock)
	gzBuf := bytes.NewBuffer(gzBytes.bytes[:0])

	gzBuf.Write([]byte{
		0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00,
		0x00, 0x00, 0x00, 0xff, 0x06, 0x00,
		0x42, 0x43, 0x02, 0x00, 0x00, 0x00,
	})

	var flateWriter *flate.Writer
	if pooled := flateWriterPool.Get(); pooled != nil {
		flateWriter = pooled.(*flate.Writer)
		flateWriter.Reset(gzBuf)
	} else {
		var err error
		if flateWriter, err = flate.NewWriter(gzBuf, level); err != nil {
			p.SetErr(err)
			return gzBytes
		}
	}
	if _, err := flateWriter.Write(b.bytes); err != nil {
		p.SetErr(err)
	} else if err := flateWriter.Close(); err != nil {
		p.SetErr(err)
	}
	var tail [8]byte
	binary.LittleEndian.PutUint32(tail[0:4], crc32.ChecksumIEEE(b.bytes))
	binary.LittleEndian.PutUint32(tail[4:8], uint32(len(b.bytes)))
	gzBuf.Write(tail[:])
	gzBytes.bytes = gzBuf.Bytes()
	binary.LittleEndian.PutUint16(gzBytes.bytes[16:18], uint16(len(gzBytes.bytes)-1))
	b.bytes = b.bytes[:0]
	bytesPool.Put(b)
	flateWriterPool.Put(flateWriter)
	return gzBytes
}

// NewWriter returns a Writer for the given io.Writer.
//
// Following zlib, levels range from 1 (BestSpeed) to 9 (BestCompression);
// higher levels typically run slower but compress more. Level 0
// (NoCompression) does not attempt any compression; it only adds the
// necessary DEFLATE framing.
// Level -1 (DefaultCompression) uses the default compression level.
//
// All blocks written by one Writer share the same level.
func NewWriter(w io.Writer, level int) *Writer {
	bgzf := &Writer{
		w:       w,
		block:   bytesPool.Get().(*bytesBlock),
		channel: make(chan *bytesBlock, 1),
	}
	bgzf.p.Source((*blockSink)(bgzf))
	bgzf.p.Add(pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
		return deflate(&bgzf.p, data.(*bytesBlock), level)
	})), pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
		gzBytes := data.(*bytesBlock)
		if _, err := w.Write(gzBytes.bytes); err != nil {
			bgzf.p.SetErr(err)
		}
		gzBytes.bytes = gzBytes.bytes[:0]
		bytesPool.Put(gzBytes)
		return nil
	})))
	bgzf.wait.Add(1)
	go func() {
		defer bgzf.wait.Done()
		bgzf.p.Run()
	}()
	return bgzf
}

func (bgzf *Writer) sendBlock() (err error) {
	defer func() {
		if x := recover(); x != nil {
			err = errors.New(fmt.Sprint(x))
		}
	}()
	bgzf.channel <- bgzf.block
	return nil
}

// Close flushes pending data and appends the BGZF end-of-file marker.
// It does not close the underlying writer.
func (bgzf *Writer) Close() error {
	if bgzf.block != nil && len(bgzf.block.bytes) > 0 {
		if err := bgzf.sendBlock(); err != nil {
			return err
		}
	}
	bgzf.block = nil
	close(bgzf.channel)
	bgzf.wait.Wait()
	if err := bgzf.p.Err(); err != nil {
		return err
	}
	_, err := bgzf.w.Write(eofMarker)
	return err
}

// Write implements the corresponding method of io.Writer.
func (bgzf *Writer) Write(p []byte) (n int, err error) {
	n = len(p)
	for {
		blockIndex := len(bgzf.block.bytes)
		newBlockLength := blockIndex + len(p)
		if newBlockLength >= maxBlockSize {
			bgzf.block.bytes = bgzf.block.bytes[:maxBlockSize]
			k := copy(bgzf.block.bytes[blockIndex:], p)
			p = p[k:]
			if err := bgzf.sendBlock(); err != nil {
				return n - len(p), err
			}
			bgzf.block = bytesPool.Get().(*bytesBlock)
			if len(p) == 0 {
				return
			}
		} else {
			bgzf.block.bytes = bgzf.block.bytes[:newBlockLength]
			copy(bgzf.block.bytes[blockIndex:], p)
			return
		}
	}
}
