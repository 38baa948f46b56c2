package c4presenter

import (
	"encoding/base64"
	"strings"
)

// Presenter sends text replies and board images to a room.
type Presenter struct {
	sendMessage func(room, message string) error
	sendImage   func(room, imageBase64 string) error
}

func NewPresenter(sendMessage func(room, message string) error, sendImage func(room, imageBase64 string) error) *Presenter {
	return &Presenter{sendMessage: sendMessage, sendImage: sendImage}
}

// Text sends message if it is not blank.
func (p *Presenter) Text(room, message string) error {
	if p == nil || p.sendMessage == nil || strings.TrimSpace(message) == "" {
		return nil
	}
	return p.sendMessage(room, message)
}

// Board sends message, then the PNG image when there is one.
func (p *Presenter) Board(room, message string, image []byte) error {
	if p == nil {
		return nil
	}
	if err := p.Text(room, message); err != nil {
		return err
	}
	if len(image) > 0 && p.sendImage != nil {
		return p.sendImage(room, base64.StdEncoding.EncodeToString(image))
	}
	return nil
}
