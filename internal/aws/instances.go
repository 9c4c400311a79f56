package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/rds"
	"github.com/aws/aws-sdk-go/service/rds/rdsiface"

	"gp3sift/internal/aws/ratelimit"
	"gp3sift/internal/logging"
	"gp3sift/internal/pricing/models"
)

// ListInstances returns the storage configuration of every RDS instance in
// the client's region. Cluster members are skipped since their storage is
// priced with the cluster.
func ListInstances(ctx context.Context, svc rdsiface.RDSAPI, accountID, region string) ([]models.InstanceConfig, error) {
	limiter := ratelimit.GetServiceLimiter("rds")

	var instances []models.InstanceConfig
	err := limiter.Execute(ctx, "DescribeDBInstances", func() error {
		instances = nil
		return svc.DescribeDBInstancesPagesWithContext(ctx, &rds.DescribeDBInstancesInput{},
			func(page *rds.DescribeDBInstancesOutput, lastPage bool) bool {
				for _, db := range page.DBInstances {
					if db.DBClusterIdentifier != nil {
						logging.Info("Skipping cluster member", map[string]interface{}{
							"account_id": accountID,
							"region":     region,
							"instance":   aws.StringValue(db.DBInstanceIdentifier),
							"cluster":    aws.StringValue(db.DBClusterIdentifier),
						})
						continue
					}
					instances = append(instances, instanceConfig(db, accountID, region))
				}
				return !lastPage
			})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to describe DB instances in %s: %w", models.ErrUpstreamUnavailable, region, err)
	}

	return instances, nil
}

func instanceConfig(db *rds.DBInstance, accountID, region string) models.InstanceConfig {
	return models.InstanceConfig{
		AccountID:     accountID,
		Identifier:    aws.StringValue(db.DBInstanceIdentifier),
		Region:        region,
		InstanceClass: aws.StringValue(db.DBInstanceClass),
		DBName:        db.DBName,
		Engine:        aws.StringValue(db.Engine),
		MultiAZ:       db.MultiAZ,
		VolumeType:    aws.StringValue(db.StorageType),
		StorageGB:     aws.Int64Value(db.AllocatedStorage),
		Throughput:    db.StorageThroughput,
		IOPS:          db.Iops,
	}
}
