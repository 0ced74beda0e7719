package tags

import (
	"bytes"
	"fmt"
	"strconv"
)

// Records are the byte form the tag cache keeps for a resolution:
//
//	single:    "<line>\x00<fid>\x00" with an optional "<path>\x00"
//	aggregate: " <fid>\x00<count>\x00"
//
// An empty record means the name is not in the store.

// EncodeRecord appends the record form of r to dst.
func EncodeRecord(dst []byte, r Resolution) []byte {
	switch r.Shape {
	case Single:
		dst = strconv.AppendInt(dst, int64(r.Line), 10)
		dst = append(dst, 0)
		dst = append(dst, r.FileID...)
		dst = append(dst, 0)
		if r.Path != "" {
			dst = append(dst, r.Path...)
			dst = append(dst, 0)
		}
	case Aggregate:
		dst = append(dst, ' ')
		dst = append(dst, r.FileID...)
		dst = append(dst, 0)
		dst = strconv.AppendInt(dst, int64(r.Count), 10)
		dst = append(dst, 0)
	}
	return dst
}

// DecodeRecord parses a record. A single record without a path leaves Path
// empty; callers then map FileID through Paths.
func DecodeRecord(rec []byte) (Resolution, error) {
	if len(rec) == 0 {
		return Resolution{Shape: NotFound}, nil
	}
	if rec[0] == ' ' {
		fid, rest, ok := nextField(rec[1:])
		if !ok || len(fid) == 0 {
			return Resolution{}, fmt.Errorf("%w: aggregate without file id: %q", ErrMalformedRecord, rec)
		}
		count, _, ok := nextField(rest)
		if !ok {
			return Resolution{}, fmt.Errorf("%w: aggregate without count: %q", ErrMalformedRecord, rec)
		}
		n, err := strconv.Atoi(string(count))
		if err != nil || n < 1 {
			return Resolution{}, fmt.Errorf("%w: bad aggregate count %q", ErrMalformedRecord, count)
		}
		return Resolution{Shape: Aggregate, FileID: string(fid), Count: n}, nil
	}

	lno, rest, ok := nextField(rec)
	if !ok {
		return Resolution{}, fmt.Errorf("%w: single without line: %q", ErrMalformedRecord, rec)
	}
	line, err := strconv.Atoi(string(lno))
	if err != nil || line < 1 {
		return Resolution{}, fmt.Errorf("%w: bad line number %q", ErrMalformedRecord, lno)
	}
	fid, rest, ok := nextField(rest)
	if !ok || len(fid) == 0 {
		return Resolution{}, fmt.Errorf("%w: single without file id: %q", ErrMalformedRecord, rec)
	}
	res := Resolution{Shape: Single, Line: line, FileID: string(fid)}
	if len(rest) > 0 {
		p, _, ok := nextField(rest)
		if !ok {
			return Resolution{}, fmt.Errorf("%w: unterminated path: %q", ErrMalformedRecord, rec)
		}
		res.Path = string(p)
	}
	return res, nil
}

func nextField(b []byte) (field, rest []byte, ok bool) {
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		return nil, nil, false
	}
	return b[:i], b[i+1:], true
}
