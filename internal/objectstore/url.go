package objectstore

import "fmt"

// legacyRegion is served from the region-less bucket endpoint.
const legacyRegion = "us-east-1"

// PublicURL composes the virtual-hosted URL of an object in an S3 bucket.
func PublicURL(bucket, region, key string) string {
	if region == legacyRegion {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", bucket, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}
