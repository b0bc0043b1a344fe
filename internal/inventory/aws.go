package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/efs"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const (
	envTagKey  = "testdeck:env"
	roleTagKey = "testdeck:role"
)

// AWSSource lists EC2 instances, CloudFormation stacks and EFS file systems
// tagged for one environment. Transient API failures are retried with
// exponential backoff before the error reaches the caller.
type AWSSource struct {
	ec2 *ec2.Client
	cfn *cloudformation.Client
	efs *efs.Client
	log zerolog.Logger
}

func NewAWSSource(ctx context.Context, region string, log zerolog.Logger) (*AWSSource, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &AWSSource{
		ec2: ec2.NewFromConfig(cfg),
		cfn: cloudformation.NewFromConfig(cfg),
		efs: efs.NewFromConfig(cfg),
		log: log,
	}, nil
}

func retryPolicy(ctx context.Context) backoff.BackOffContext {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = 20 * time.Second
	return backoff.WithContext(policy, ctx)
}

func (s *AWSSource) Instances(ctx context.Context, envTag string, runningOnly bool) ([]Instance, error) {
	filters := []ec2types.Filter{
		{Name: aws.String("tag:" + envTagKey), Values: []string{envTag}},
	}
	if runningOnly {
		filters = append(filters, ec2types.Filter{
			Name:   aws.String("instance-state-name"),
			Values: []string{"running"},
		})
	}

	var instances []Instance
	op := func() error {
		instances = instances[:0]
		paginator := ec2.NewDescribeInstancesPaginator(s.ec2, &ec2.DescribeInstancesInput{
			Filters: filters,
		})
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				s.log.Debug().Err(err).Msg("describe instances failed, retrying")
				return err
			}
			for _, reservation := range page.Reservations {
				for _, raw := range reservation.Instances {
					instances = append(instances, describeInstance(raw))
				}
			}
		}
		return nil
	}
	if err := backoff.Retry(op, retryPolicy(ctx)); err != nil {
		return nil, fmt.Errorf("failed to enumerate instances for %q: %w", envTag, err)
	}
	return instances, nil
}

func describeInstance(raw ec2types.Instance) Instance {
	tags := make(map[string]string, len(raw.Tags))
	for _, tag := range raw.Tags {
		tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	state := ""
	if raw.State != nil {
		state = string(raw.State.Name)
	}
	return Instance{
		ID:        aws.ToString(raw.InstanceId),
		State:     state,
		PublicIP:  aws.ToString(raw.PublicIpAddress),
		PrivateIP: aws.ToString(raw.PrivateIpAddress),
		Role:      tags[roleTagKey],
		Tags:      tags,
	}
}

func (s *AWSSource) Stacks(ctx context.Context, envTag string) ([]Stack, error) {
	var stacks []Stack
	op := func() error {
		stacks = stacks[:0]
		paginator := cloudformation.NewDescribeStacksPaginator(s.cfn, &cloudformation.DescribeStacksInput{})
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return err
			}
			for _, raw := range page.Stacks {
				tags := make(map[string]string, len(raw.Tags))
				for _, tag := range raw.Tags {
					tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
				}
				if tags[envTagKey] != envTag {
					continue
				}
				stacks = append(stacks, Stack{
					Name:  aws.ToString(raw.StackName),
					State: string(raw.StackStatus),
					Tags:  tags,
				})
			}
		}
		return nil
	}
	if err := backoff.Retry(op, retryPolicy(ctx)); err != nil {
		return nil, fmt.Errorf("failed to enumerate stacks for %q: %w", envTag, err)
	}
	return stacks, nil
}

func (s *AWSSource) FileSystems(ctx context.Context, envTag string) ([]FileSystem, error) {
	var volumes []FileSystem
	op := func() error {
		volumes = volumes[:0]
		paginator := efs.NewDescribeFileSystemsPaginator(s.efs, &efs.DescribeFileSystemsInput{})
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return err
			}
			for _, raw := range page.FileSystems {
				tags := make(map[string]string, len(raw.Tags))
				for _, tag := range raw.Tags {
					tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
				}
				if tags[envTagKey] != envTag {
					continue
				}
				volumes = append(volumes, FileSystem{
					ID:    aws.ToString(raw.FileSystemId),
					Name:  aws.ToString(raw.Name),
					State: string(raw.LifeCycleState),
					Tags:  tags,
				})
			}
		}
		return nil
	}
	if err := backoff.Retry(op, retryPolicy(ctx)); err != nil {
		return nil, fmt.Errorf("failed to enumerate file systems for %q: %w", envTag, err)
	}
	return volumes, nil
}
