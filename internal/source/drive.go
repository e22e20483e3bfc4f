package source

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"docsync-rag/internal/models"
)

// Google Workspace MIME types that need an export instead of a download.
const (
	mimeGoogleDoc    = "application/vnd.google-apps.document"
	mimeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	mimeGoogleSlides = "application/vnd.google-apps.presentation"
	mimeFolder       = "application/vnd.google-apps.folder"

	exportMimeText = "text/plain"
	exportMimeCSV  = "text/csv"
)

// maxFetchSize caps downloaded content at 5MB.
const maxFetchSize = 5 * 1024 * 1024

// DriveSource lists the files of one Google Drive folder using a service
// account. Drive's modifiedTime is RFC3339, which compares correctly as
// a string.
type DriveSource struct {
	svc      *drive.Service
	folderID string
}

func NewDriveSource(ctx context.Context, credentialsFile, folderID string) (*DriveSource, error) {
	svc, err := drive.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(drive.DriveReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &DriveSource{svc: svc, folderID: folderID}, nil
}

func (s *DriveSource) List(ctx context.Context) ([]models.Document, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false", s.folderID)
	var docs []models.Document
	pageToken := ""
	for {
		call := s.svc.Files.List().
			Q(query).
			Fields("nextPageToken, files(id, name, mimeType, modifiedTime)").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		res, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("%w: list folder %s: %v", models.ErrSourceUnavailable, s.folderID, err)
		}

		for _, file := range res.Files {
			if file.MimeType == mimeFolder {
				continue
			}
			content, err := s.fetchContent(ctx, file)
			if err != nil {
				log.Error().Err(err).Str("file", file.Name).Msg("Error downloading file content")
				content = ""
			}
			docs = append(docs, models.Document{
				ID:       file.Id,
				Name:     file.Name,
				Modified: file.ModifiedTime,
				Content:  content,
			})
		}

		pageToken = res.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return docs, nil
}

// fetchContent exports Google Workspace files to text and downloads
// everything else, rejecting bodies that are not valid UTF-8.
func (s *DriveSource) fetchContent(ctx context.Context, file *drive.File) (string, error) {
	var content string
	var err error
	switch file.MimeType {
	case mimeGoogleDoc, mimeGoogleSlides:
		content, err = s.export(ctx, file.Id, exportMimeText)
	case mimeGoogleSheet:
		content, err = s.export(ctx, file.Id, exportMimeCSV)
	default:
		if !isTextMime(file.MimeType) {
			return "", nil
		}
		content, err = s.download(ctx, file.Id)
	}
	if err != nil {
		return "", err
	}
	if !utf8.ValidString(content) {
		return "", fmt.Errorf("content of %s is not valid UTF-8", file.Name)
	}
	return content, nil
}

func (s *DriveSource) export(ctx context.Context, fileID, mimeType string) (string, error) {
	resp, err := s.svc.Files.Export(fileID, mimeType).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("export file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize))
	if err != nil {
		return "", fmt.Errorf("read export: %w", err)
	}
	return string(data), nil
}

func (s *DriveSource) download(ctx context.Context, fileID string) (string, error) {
	resp, err := s.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize))
	if err != nil {
		return "", fmt.Errorf("read file content: %w", err)
	}
	return string(data), nil
}

func isTextMime(mimeType string) bool {
	if strings.HasPrefix(mimeType, "text/") {
		return true
	}
	switch mimeType {
	case "application/json", "application/xml", "application/x-yaml":
		return true
	}
	return false
}
