package handlers

import (
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/thereayou/voxus/internal/models"
	"github.com/thereayou/voxus/internal/services"
)

const maxAttachmentSize = 10 << 20 // 10MB

// readAttachment достает из multipart-формы поле file и тип IMAGE/FILE
func readAttachment(c *gin.Context) (*services.Attachment, models.MessageKind, error) {
	kind := models.MessageKind(strings.ToUpper(c.DefaultPostForm("type", string(models.KindFile))))
	if !kind.HasMedia() {
		return nil, "", fmt.Errorf("%w: type must be IMAGE or FILE", services.ErrInvalidArgument)
	}

	header, err := c.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("%w: file is required", services.ErrInvalidArgument)
	}
	if header.Size > maxAttachmentSize {
		return nil, "", fmt.Errorf("%w: file is larger than %d bytes", services.ErrInvalidArgument, maxAttachmentSize)
	}

	f, err := header.Open()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", services.ErrInvalidArgument, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxAttachmentSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", services.ErrInvalidArgument, err)
	}
	if len(data) > maxAttachmentSize {
		return nil, "", fmt.Errorf("%w: file is larger than %d bytes", services.ErrInvalidArgument, maxAttachmentSize)
	}

	return &services.Attachment{Data: data, FileName: header.Filename}, kind, nil
}
