package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"tenco_back_end/internal/database"
)

// Extensions d'images acceptées pour les photos de profil
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// IsImageFile vérifie l'extension du fichier envoyé
func IsImageFile(file *multipart.FileHeader) bool {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	return imageExtensions[ext]
}

// SaveProfileImage téléverse l'image de profil et retourne la référence
// stockée en base (nom d'objet, pas l'URL complète).
func SaveProfileImage(ctx context.Context, userID string, file *multipart.FileHeader) (string, error) {
	if database.MinIO == nil {
		return "", fmt.Errorf("MinIO non initialisé")
	}

	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	objectName := fmt.Sprintf("profiles/%s/%s%s", userID, uuid.NewString(), strings.ToLower(filepath.Ext(file.Filename)))
	bucket := os.Getenv("MINIO_BUCKET")

	_, err = database.MinIO.PutObject(ctx, bucket, objectName, f, file.Size,
		minio.PutObjectOptions{ContentType: file.Header.Get("Content-Type")})
	if err != nil {
		return "", err
	}

	return objectName, nil
}

// DeleteProfileImage supprime l'objet référencé. Les références externes
// (URL Kakao copiées telles quelles) ne sont pas des objets MinIO : on les
// ignore.
func DeleteProfileImage(ctx context.Context, reference string) error {
	if database.MinIO == nil {
		return fmt.Errorf("MinIO non initialisé")
	}
	if strings.HasPrefix(reference, "http://") || strings.HasPrefix(reference, "https://") {
		return nil
	}

	bucket := os.Getenv("MINIO_BUCKET")
	return database.MinIO.RemoveObject(ctx, bucket, reference, minio.RemoveObjectOptions{})
}
