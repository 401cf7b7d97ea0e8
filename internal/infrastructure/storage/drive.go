package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"BookmarkSummarizer/internal/domain"
	"BookmarkSummarizer/internal/ports"
)

const (
	folderMimeType = "application/vnd.google-apps.folder"
	artifactFields = "id, name, parents, appProperties, webViewLink, createdTime, modifiedTime"
)

// DriveCredentials selects how the Drive client authenticates.
type DriveCredentials struct {
	ClientID        string
	ClientSecret    string
	RefreshToken    string
	CredentialsFile string
}

// DriveStore persists containers as folders and artifacts as files in Google Drive.
type DriveStore struct {
	files *drive.FilesService
}

var _ ports.Store = (*DriveStore)(nil)

// NewDriveStore wraps an existing Drive service.
func NewDriveStore(svc *drive.Service) *DriveStore {
	if svc == nil {
		return &DriveStore{}
	}
	return &DriveStore{files: svc.Files}
}

// NewDriveService builds a Drive client. A refresh token (installed-app OAuth)
// takes precedence over a service-account credentials file.
func NewDriveService(ctx context.Context, creds DriveCredentials, extra ...option.ClientOption) (*drive.Service, error) {
	var opts []option.ClientOption
	switch {
	case creds.RefreshToken != "":
		if creds.ClientID == "" || creds.ClientSecret == "" {
			return nil, fmt.Errorf("drive refresh token requires client id and secret")
		}
		conf := &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{drive.DriveScope},
		}
		client := conf.Client(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken})
		client.Timeout = 30 * time.Second
		opts = append(opts, option.WithHTTPClient(client))
	case creds.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(creds.CredentialsFile), option.WithScopes(drive.DriveScope))
	default:
		return nil, fmt.Errorf("drive credentials missing")
	}

	svc, err := drive.NewService(ctx, append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return svc, nil
}

// FindContainer looks up a non-trashed folder by name under parentID.
func (s *DriveStore) FindContainer(ctx context.Context, name, parentID string) (string, bool, error) {
	if s.files == nil {
		return "", false, fmt.Errorf("drive store misconfigured")
	}

	q := fmt.Sprintf("mimeType='%s' and name='%s' and trashed=false", folderMimeType, escapeQuery(name))
	if parentID != "" {
		q += fmt.Sprintf(" and '%s' in parents", escapeQuery(parentID))
	}

	list, err := s.files.List().
		Q(q).
		Fields("files(id, name)").
		PageSize(1).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", false, fmt.Errorf("list folders: %w", err)
	}
	if len(list.Files) == 0 {
		return "", false, nil
	}
	return list.Files[0].Id, true, nil
}

// CreateContainer creates a folder, optionally under parentID.
func (s *DriveStore) CreateContainer(ctx context.Context, name, parentID string) (string, error) {
	if s.files == nil {
		return "", fmt.Errorf("drive store misconfigured")
	}

	folder := &drive.File{Name: name, MimeType: folderMimeType}
	if parentID != "" {
		folder.Parents = []string{parentID}
	}

	created, err := s.files.Create(folder).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("create folder: %w", err)
	}
	return created.Id, nil
}

// HasArtifactWithMarker queries appProperties; one result is enough to answer.
func (s *DriveStore) HasArtifactWithMarker(ctx context.Context, containerID, key, value string) (bool, error) {
	if s.files == nil {
		return false, fmt.Errorf("drive store misconfigured")
	}

	q := fmt.Sprintf("'%s' in parents and appProperties has { key='%s' and value='%s' } and trashed=false",
		escapeQuery(containerID), escapeQuery(key), escapeQuery(value))

	list, err := s.files.List().
		Q(q).
		Fields("files(id, name)").
		PageSize(1).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return false, fmt.Errorf("list artifacts: %w", err)
	}
	return len(list.Files) > 0, nil
}

// CreateArtifact creates an empty file carrying the marker properties.
func (s *DriveStore) CreateArtifact(ctx context.Context, spec domain.NewArtifact) (domain.Artifact, error) {
	if s.files == nil {
		return domain.Artifact{}, fmt.Errorf("drive store misconfigured")
	}

	file := &drive.File{
		Name:          spec.Name,
		MimeType:      spec.MimeType,
		Parents:       []string{spec.ContainerID},
		AppProperties: spec.Markers,
	}

	created, err := s.files.Create(file).
		Fields(artifactFields).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("create file: %w", err)
	}

	artifact := toArtifact(created)
	if artifact.ContainerID == "" {
		artifact.ContainerID = spec.ContainerID
	}
	if artifact.MimeType == "" {
		artifact.MimeType = spec.MimeType
	}
	return artifact, nil
}

// WriteArtifactContent replaces the file body with content in a single, non-resumable upload.
func (s *DriveStore) WriteArtifactContent(ctx context.Context, artifact domain.Artifact, content string) (domain.Artifact, error) {
	if s.files == nil {
		return domain.Artifact{}, fmt.Errorf("drive store misconfigured")
	}

	mimeType := artifact.MimeType
	if mimeType == "" {
		mimeType = "text/markdown"
	}

	updated, err := s.files.Update(artifact.ID, &drive.File{}).
		Media(strings.NewReader(content), googleapi.ContentType(mimeType)).
		Fields(artifactFields).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("upload content: %w", err)
	}

	result := toArtifact(updated)
	if result.ContainerID == "" {
		result.ContainerID = artifact.ContainerID
	}
	result.MimeType = mimeType
	return result, nil
}

func toArtifact(f *drive.File) domain.Artifact {
	a := domain.Artifact{
		ID:          f.Id,
		Name:        f.Name,
		MimeType:    f.MimeType,
		LocationURL: f.WebViewLink,
		CreatedAt:   parseDriveTime(f.CreatedTime),
		ModifiedAt:  parseDriveTime(f.ModifiedTime),
	}
	if len(f.Parents) > 0 {
		a.ContainerID = f.Parents[0]
	}
	return a
}

func parseDriveTime(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// escapeQuery escapes a value for use inside a single-quoted Drive query literal.
func escapeQuery(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `'`, `\'`)
}
