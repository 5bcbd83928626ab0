package store

import "github.com/vmihailenco/msgpack/v5"

func encodeStrings(ss []string) ([]byte, error) {
	return msgpack.Marshal(ss)
}

func decodeStrings(blob []byte) []string {
	var ss []string
	_ = msgpack.Unmarshal(blob, &ss)
	return ss
}
