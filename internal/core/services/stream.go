package services

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
)

// collectReply issues one streaming request and drains it, handing each
// fragment to onToken. It returns whatever text arrived, even on error.
func collectReply(
	ctx context.Context,
	model driven.ChatModel,
	req driven.ChatRequest,
	onToken func(string),
) (string, error) {
	stream, err := model.ChatStream(ctx, req)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var reply strings.Builder
	for {
		if err := ctx.Err(); err != nil {
			return reply.String(), err
		}

		token, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return reply.String(), nil
		}
		if err != nil {
			return reply.String(), err
		}
		if token == "" {
			continue
		}

		reply.WriteString(token)
		if onToken != nil {
			onToken(token)
		}
	}
}
