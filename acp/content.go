package acp

import (
	"encoding/json"
	"fmt"
)

// Role identifies the speaker an annotation targets.
type Role string

const (
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// Annotations are optional hints about how content should be used or shown.
type Annotations struct {
	Audience     []Role   `json:"audience,omitempty"`
	LastModified *string  `json:"lastModified,omitempty"`
	Priority     *float64 `json:"priority,omitempty"`
	Meta         Meta     `json:"_meta,omitempty"`
}

type TextContent struct {
	Annotations *Annotations `json:"annotations,omitempty"`
	Text        string       `json:"text"`
	Meta        Meta         `json:"_meta,omitempty"`
}

type ImageContent struct {
	Annotations *Annotations `json:"annotations,omitempty"`
	Data        string       `json:"data"`
	MimeType    string       `json:"mimeType"`
	URI         *string      `json:"uri,omitempty"`
	Meta        Meta         `json:"_meta,omitempty"`
}

type AudioContent struct {
	Annotations *Annotations `json:"annotations,omitempty"`
	Data        string       `json:"data"`
	MimeType    string       `json:"mimeType"`
	Meta        Meta         `json:"_meta,omitempty"`
}

// ResourceLink references a resource the agent can fetch itself.
type ResourceLink struct {
	Annotations *Annotations `json:"annotations,omitempty"`
	Description *string      `json:"description,omitempty"`
	MimeType    *string      `json:"mimeType,omitempty"`
	Name        string       `json:"name"`
	Size        *int64       `json:"size,omitempty"`
	Title       *string      `json:"title,omitempty"`
	URI         string       `json:"uri"`
	Meta        Meta         `json:"_meta,omitempty"`
}

// EmbeddedResource carries resource contents inline.
type EmbeddedResource struct {
	Annotations *Annotations             `json:"annotations,omitempty"`
	Resource    EmbeddedResourceResource `json:"resource"`
	Meta        Meta                     `json:"_meta,omitempty"`
}

type TextResourceContents struct {
	MimeType *string `json:"mimeType,omitempty"`
	Text     string  `json:"text"`
	URI      string  `json:"uri"`
	Meta     Meta    `json:"_meta,omitempty"`
}

type BlobResourceContents struct {
	Blob     string  `json:"blob"`
	MimeType *string `json:"mimeType,omitempty"`
	URI      string  `json:"uri"`
	Meta     Meta    `json:"_meta,omitempty"`
}

// EmbeddedResourceResource is either text or blob contents. The wire form is
// untagged: the presence of "text" or "blob" selects the variant.
type EmbeddedResourceResource struct {
	Text *TextResourceContents
	Blob *BlobResourceContents
}

func (r EmbeddedResourceResource) MarshalJSON() ([]byte, error) {
	switch {
	case r.Text != nil:
		return marshalJSON(r.Text)
	case r.Blob != nil:
		return marshalJSON(r.Blob)
	}
	return nil, fmt.Errorf("embedded resource: %w", errNoVariant)
}

func (r *EmbeddedResourceResource) UnmarshalJSON(data []byte) error {
	*r = EmbeddedResourceResource{}
	isText, err := hasKey(data, "text")
	if err != nil {
		return err
	}
	if isText {
		r.Text = new(TextResourceContents)
		return json.Unmarshal(data, r.Text)
	}
	isBlob, err := hasKey(data, "blob")
	if err != nil {
		return err
	}
	if isBlob {
		r.Blob = new(BlobResourceContents)
		return json.Unmarshal(data, r.Blob)
	}
	return fmt.Errorf("embedded resource has neither text nor blob")
}

// Content block discriminators.
const (
	ContentTypeText         = "text"
	ContentTypeImage        = "image"
	ContentTypeAudio        = "audio"
	ContentTypeResourceLink = "resource_link"
	ContentTypeResource     = "resource"
)

// ContentBlock is one piece of displayable content. Exactly one field is
// set; the wire form is tagged by "type".
type ContentBlock struct {
	Text         *TextContent
	Image        *ImageContent
	Audio        *AudioContent
	ResourceLink *ResourceLink
	Resource     *EmbeddedResource
}

// TextBlock is shorthand for a plain text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Text: &TextContent{Text: text}}
}

func ImageBlock(data, mimeType string) ContentBlock {
	return ContentBlock{Image: &ImageContent{Data: data, MimeType: mimeType}}
}

func AudioBlock(data, mimeType string) ContentBlock {
	return ContentBlock{Audio: &AudioContent{Data: data, MimeType: mimeType}}
}

func ResourceLinkBlock(name, uri string) ContentBlock {
	return ContentBlock{ResourceLink: &ResourceLink{Name: name, URI: uri}}
}

// TextResourceBlock embeds text contents for uri.
func TextResourceBlock(uri, text string) ContentBlock {
	return ContentBlock{Resource: &EmbeddedResource{
		Resource: EmbeddedResourceResource{Text: &TextResourceContents{URI: uri, Text: text}},
	}}
}

// Type returns the discriminator of the set variant, or "" if none is set.
func (b ContentBlock) Type() string {
	switch {
	case b.Text != nil:
		return ContentTypeText
	case b.Image != nil:
		return ContentTypeImage
	case b.Audio != nil:
		return ContentTypeAudio
	case b.ResourceLink != nil:
		return ContentTypeResourceLink
	case b.Resource != nil:
		return ContentTypeResource
	}
	return ""
}

func (b ContentBlock) MarshalJSON() ([]byte, error) {
	switch {
	case b.Text != nil:
		return marshalTagged("type", ContentTypeText, b.Text)
	case b.Image != nil:
		return marshalTagged("type", ContentTypeImage, b.Image)
	case b.Audio != nil:
		return marshalTagged("type", ContentTypeAudio, b.Audio)
	case b.ResourceLink != nil:
		return marshalTagged("type", ContentTypeResourceLink, b.ResourceLink)
	case b.Resource != nil:
		return marshalTagged("type", ContentTypeResource, b.Resource)
	}
	return nil, fmt.Errorf("content block: %w", errNoVariant)
}

func (b *ContentBlock) UnmarshalJSON(data []byte) error {
	tag, err := peekTag(data, "type")
	if err != nil {
		return fmt.Errorf("content block: %w", err)
	}
	*b = ContentBlock{}
	switch tag {
	case ContentTypeText:
		b.Text = new(TextContent)
		return json.Unmarshal(data, b.Text)
	case ContentTypeImage:
		b.Image = new(ImageContent)
		return json.Unmarshal(data, b.Image)
	case ContentTypeAudio:
		b.Audio = new(AudioContent)
		return json.Unmarshal(data, b.Audio)
	case ContentTypeResourceLink:
		b.ResourceLink = new(ResourceLink)
		return json.Unmarshal(data, b.ResourceLink)
	case ContentTypeResource:
		b.Resource = new(EmbeddedResource)
		return json.Unmarshal(data, b.Resource)
	}
	return fmt.Errorf("content block: unknown type %q", tag)
}

// ContentChunk is a streamed piece of a message.
type ContentChunk struct {
	Content ContentBlock `json:"content"`
	Meta    Meta         `json:"_meta,omitempty"`
}
