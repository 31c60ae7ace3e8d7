package openai

import (
	"sync"
	"unicode/utf8"

	"github.com/Laisky/zap"
	"github.com/pkoukk/tiktoken-go"

	"github.com/syslm/parity/common/logger"
)

var (
	tokenEncoderMu sync.Mutex
	tokenEncoders  = map[string]*tiktoken.Tiktoken{}
)

// getTokenEncoder lazily resolves the tiktoken encoder for a model. A nil
// entry is cached when the encoding is unavailable (unknown model, offline
// environment without a tiktoken cache) so the lookup happens once.
func getTokenEncoder(model string) *tiktoken.Tiktoken {
	tokenEncoderMu.Lock()
	defer tokenEncoderMu.Unlock()

	if encoder, ok := tokenEncoders[model]; ok {
		return encoder
	}

	encoder, err := tiktoken.EncodingForModel(model)
	if err != nil {
		logger.Logger.Debug("token encoder unavailable, using approximation",
			zap.String("model", model),
			zap.Error(err))
		encoder = nil
	}
	tokenEncoders[model] = encoder
	return encoder
}

// CountTokenText estimates the token count of text under the given model's
// encoding, falling back to a rune-based approximation when no encoder is
// available.
func CountTokenText(text string, model string) int {
	if text == "" {
		return 0
	}
	if encoder := getTokenEncoder(model); encoder != nil {
		return len(encoder.Encode(text, nil, nil))
	}
	return approximateTokenCount(text)
}

// approximateTokenCount assumes roughly four characters per token, rounded up.
func approximateTokenCount(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}
