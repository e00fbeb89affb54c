package mailer

import (
	"bytes"
	"embed"
	"fmt"
	htmltmpl "html/template"
	"net/mail"
	texttmpl "text/template"
)

//go:embed templates/*
var templateFS embed.FS

var (
	resultPublishedText = texttmpl.Must(texttmpl.New("result_published.txt").
				Option("missingkey=error").
				ParseFS(templateFS, "templates/result_published.txt"))
	resultPublishedHTML = htmltmpl.Must(htmltmpl.New("result_published.gohtml").
				Option("missingkey=error").
				ParseFS(templateFS, "templates/result_published.gohtml"))
)

// ResultPublishedData fills the result published email.
type ResultPublishedData struct {
	RecipientName string
	StudentName   string
	ExamTitle     string
	SubjectName   string
	Score         float64
	MaxMarks      float64
	Percentage    float64
	Grade         string
	Remarks       string
	SchoolName    string
}

// ResultPublished renders the email telling a recipient a result is out.
func ResultPublished(to mail.Address, data ResultPublishedData) (Message, error) {
	var text, html bytes.Buffer
	if err := resultPublishedText.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("render text: %w", err)
	}
	if err := resultPublishedHTML.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("render html: %w", err)
	}
	return Message{
		To:          []mail.Address{to},
		Subject:     fmt.Sprintf("Nilai %s - %s", data.SubjectName, data.ExamTitle),
		TextContent: text.String(),
		HTMLContent: html.String(),
	}, nil
}
