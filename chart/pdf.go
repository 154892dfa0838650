package chart

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// PDFInfo describes a rendered PDF: its page count and the decompressed
// content stream of each page.
type PDFInfo struct {
	Pages   int
	Streams [][]byte
}

// PageContains reports whether page i (1-based) draws the literal text s.
func (in *PDFInfo) PageContains(i int, s string) bool {
	if i < 1 || i > len(in.Streams) {
		return false
	}
	return bytes.Contains(in.Streams[i-1], []byte(s))
}

// InspectPDF parses a PDF and decodes every page's content stream.
func InspectPDF(rs io.ReadSeeker) (*PDFInfo, error) {
	ctx, err := pdfcpu.Read(rs, model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	if err := pdfcpu.OptimizeXRefTable(ctx); err != nil {
		return nil, fmt.Errorf("optimize xref: %w", err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}

	info := &PDFInfo{Pages: ctx.PageCount}
	for i := 1; i <= ctx.PageCount; i++ {
		pageDict, _, _, err := ctx.PageDict(i, false)
		if err != nil {
			return nil, fmt.Errorf("page %d dict: %w", i, err)
		}

		var data []byte
		if obj, found := pageDict.Find("Contents"); found {
			data, err = resolveContentStream(ctx, obj)
			if err != nil {
				return nil, fmt.Errorf("page %d content stream: %w", i, err)
			}
		}
		info.Streams = append(info.Streams, data)
	}
	return info, nil
}

// resolveContentStream dereferences and decompresses a Contents entry, which
// may be a single stream or an array of streams.
func resolveContentStream(ctx *model.Context, obj types.Object) ([]byte, error) {
	obj, err := ctx.Dereference(obj)
	if err != nil {
		return nil, err
	}

	switch v := obj.(type) {
	case types.StreamDict:
		if err := v.Decode(); err != nil {
			return nil, fmt.Errorf("decode stream: %w", err)
		}
		return v.Content, nil

	case types.Array:
		var buf bytes.Buffer
		for _, item := range v {
			data, err := resolveContentStream(ctx, item)
			if err != nil {
				return nil, err
			}
			buf.Write(data)
			buf.WriteByte('\n')
		}
		return buf.Bytes(), nil

	default:
		return nil, fmt.Errorf("unexpected Contents type: %T", obj)
	}
}
