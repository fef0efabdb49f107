package model

type UnixTime = int64

// Marshaller is implemented by every mirrored entity.
type Marshaller interface {
	ObjType() string
	ObjId() string
}
