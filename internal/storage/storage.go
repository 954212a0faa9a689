package storage

import (
	"context"
	"io"
	"strconv"
)

type Uploader interface {
	Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (storedPath string, err error)
}

// UtteranceObject is the object key for one captured utterance.
func UtteranceObject(sessionID string, chunkIndex int64) string {
	return "sessions/" + sessionID + "/utterances/" + strconv.FormatInt(chunkIndex, 10) + ".wav"
}
