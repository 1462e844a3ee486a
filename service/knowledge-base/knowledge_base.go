package knowledgebase

import (
	"context"
	"fmt"
	"io"
	"time"

	"rag-chatbot-backend/config"

	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss"
	"github.com/aliyun/alibabacloud-oss-go-sdk-v2/oss/credentials"
)

const presignExpiration = 15 * time.Minute

func newOSSClient() *oss.Client {
	cfg := &oss.Config{
		Region: oss.Ptr(config.Cfg.OSS.Region),
		CredentialsProvider: credentials.NewStaticCredentialsProvider(
			config.Cfg.OSS.AccessKeyID,
			config.Cfg.OSS.AccessKeySecret,
		),
	}
	return oss.NewClient(cfg)
}

func PutObject(ctx context.Context, objectName string, body io.Reader) error {
	client := newOSSClient()
	_, err := client.PutObject(ctx, &oss.PutObjectRequest{
		Bucket: oss.Ptr(config.Cfg.OSS.BucketName),
		Key:    oss.Ptr(objectName),
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("failed to put object to oss: %v", err)
	}
	return nil
}

func GetObject(ctx context.Context, objectName string) ([]byte, error) {
	client := newOSSClient()
	result, err := client.GetObject(ctx, &oss.GetObjectRequest{
		Bucket: oss.Ptr(config.Cfg.OSS.BucketName),
		Key:    oss.Ptr(objectName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object from oss: %v", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %v", err)
	}
	return data, nil
}

func DeleteObject(ctx context.Context, objectName string) error {
	client := newOSSClient()
	_, err := client.DeleteObject(ctx, &oss.DeleteObjectRequest{
		Bucket: oss.Ptr(config.Cfg.OSS.BucketName),
		Key:    oss.Ptr(objectName),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from oss: %v", err)
	}
	return nil
}

// GeneratePresignedURL 生成有时效的文件下载链接
func GeneratePresignedURL(ctx context.Context, objectName string) (string, error) {
	client := newOSSClient()
	result, err := client.Presign(ctx, &oss.GetObjectRequest{
		Bucket: oss.Ptr(config.Cfg.OSS.BucketName),
		Key:    oss.Ptr(objectName),
	}, oss.PresignExpires(presignExpiration))
	if err != nil {
		return "", fmt.Errorf("failed to presign object: %v", err)
	}
	return result.URL, nil
}
