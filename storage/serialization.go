// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/lore/core"
)

// MUS serializers for the stored types. Field order is the wire format;
// changing it breaks existing databases.
var (
	IDMUS            = idSer{}
	TimeMUS          = timeSer{}
	ContentRecordMUS = contentRecordSer{}

	strSliceSer = ord.NewSliceSer[string](ord.String)
	vectorSer   = ord.NewSliceSer[float32](raw.Float32)
	metadataSer = ord.NewMapSer[string, string](ord.String, ord.String)
)

type idSer struct{}

func (idSer) Marshal(id core.ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idSer) Unmarshal(bs []byte) (core.ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return core.ID(v), n, err
}

func (idSer) Size(id core.ID) (size int) {
	return varint.Uint64.Size(uint64(id))
}

func (idSer) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

// timeSer encodes timestamps as Unix microseconds.
type timeSer struct{}

func (timeSer) Marshal(t time.Time, bs []byte) (n int) {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func (timeSer) Unmarshal(bs []byte) (time.Time, int, error) {
	us, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(us).UTC(), n, nil
}

func (timeSer) Size(t time.Time) (size int) {
	return varint.Int64.Size(t.UnixMicro())
}

func (timeSer) Skip(bs []byte) (n int, err error) {
	return varint.Int64.Skip(bs)
}

type contentRecordSer struct{}

func (contentRecordSer) Marshal(r core.ContentRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(r.Id, bs)
	n += ord.String.Marshal(r.URL, bs[n:])
	n += ord.String.Marshal(string(r.Type), bs[n:])
	n += ord.String.Marshal(r.Title, bs[n:])
	n += ord.String.Marshal(r.Body, bs[n:])
	n += ord.String.Marshal(r.Summary, bs[n:])
	n += strSliceSer.Marshal(r.Keywords, bs[n:])
	n += vectorSer.Marshal(r.Embedding, bs[n:])
	n += ord.String.Marshal(r.EmbeddingModel, bs[n:])
	n += strSliceSer.Marshal(r.Tags, bs[n:])
	n += ord.String.Marshal(r.Author, bs[n:])
	n += varint.Uint64.Marshal(r.ContentHash, bs[n:])
	n += TimeMUS.Marshal(r.CreatedAt, bs[n:])
	n += TimeMUS.Marshal(r.UpdatedAt, bs[n:])
	n += metadataSer.Marshal(r.Metadata, bs[n:])
	return n
}

func (contentRecordSer) Unmarshal(bs []byte) (r core.ContentRecord, n int, err error) {
	var n1 int
	if r.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if r.URL, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	var typ string
	if typ, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	r.Type = core.SourceType(typ)
	n += n1
	if r.Title, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Body, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Summary, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Keywords, n1, err = strSliceSer.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Embedding, n1, err = vectorSer.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.EmbeddingModel, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Tags, n1, err = strSliceSer.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Author, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.ContentHash, n1, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.CreatedAt, n1, err = TimeMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.UpdatedAt, n1, err = TimeMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Metadata, n1, err = metadataSer.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	return r, n, nil
}

func (contentRecordSer) Size(r core.ContentRecord) (size int) {
	size = IDMUS.Size(r.Id)
	size += ord.String.Size(r.URL)
	size += ord.String.Size(string(r.Type))
	size += ord.String.Size(r.Title)
	size += ord.String.Size(r.Body)
	size += ord.String.Size(r.Summary)
	size += strSliceSer.Size(r.Keywords)
	size += vectorSer.Size(r.Embedding)
	size += ord.String.Size(r.EmbeddingModel)
	size += strSliceSer.Size(r.Tags)
	size += ord.String.Size(r.Author)
	size += varint.Uint64.Size(r.ContentHash)
	size += TimeMUS.Size(r.CreatedAt)
	size += TimeMUS.Size(r.UpdatedAt)
	size += metadataSer.Size(r.Metadata)
	return size
}

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, IDMUS.Size(id))
	IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := IDMUS.Unmarshal(data)
	return id, err
}

// MarshalContentRecord serializes a ContentRecord to bytes.
func MarshalContentRecord(record *core.ContentRecord) []byte {
	buf := make([]byte, ContentRecordMUS.Size(*record))
	ContentRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalContentRecord deserializes a ContentRecord from bytes.
func UnmarshalContentRecord(data []byte) (*core.ContentRecord, error) {
	record, _, err := ContentRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}
