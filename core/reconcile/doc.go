// Package reconcile compares two stores of cached images and plans the
// mutations that bring them back in line.
//
// The image cache keeps every downloaded image on local disk and, when the
// mirror is enabled, in an object storage bucket. The two drift apart when a
// container starts with an empty disk, when a mirror upload fails, or when
// files are removed by hand. Reconciliation works in two steps:
//
//  1. Plan builds an index of both sides concurrently, computes the union of
//     names and records for each name where it is present. With DoSync it plans
//     uploads and restores, with DoPurge it plans deletions of one-sided names.
//  2. Apply executes a plan, but only when it is confirmed and not a dry run.
//
// Indices are cached per Reconciler for a TTL with stampede protection, so an
// HTTP endpoint polled by several clients lists the bucket once.
//
// # Usage
//
//	r := reconcile.New(
//	    reconcile.NewLocalSide(cfg.Images.Dir, imagecache.IsFileName),
//	    reconcile.NewMirrorSide(client, bucket, prefix, imagecache.IsFileName),
//	    time.Minute,
//	)
//	plan, err := r.Plan(ctx, reconcile.Options{DoSync: true})
//	executed, err := r.Apply(ctx, plan, reconcile.Options{DoSync: true, Confirmed: true})
package reconcile
