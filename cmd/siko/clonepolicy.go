package main

import (
	"siko/internal/oracle"
	"siko/internal/qtype"
)

// strictInstanceResolver wraps an InstanceResolver so that IsCopy always
// reports false, turning every collision the drop checker would otherwise
// resolve via an implicit clone into a hard diagnostic instead. Used when
// config.ClonePolicy.AllowImplicitClone is false: the clone policy is
// enforced by substituting the resolver rather than threading another bool
// through program.RunPipeline.
type strictInstanceResolver struct {
	oracle.InstanceResolver
}

func (r strictInstanceResolver) IsCopy(types *qtype.Interner, id qtype.ID) bool {
	return false
}

// withClonePolicy returns instances as-is when implicit cloning is allowed,
// or wrapped in strictInstanceResolver otherwise.
func withClonePolicy(instances oracle.InstanceResolver, allowImplicitClone bool) oracle.InstanceResolver {
	if allowImplicitClone {
		return instances
	}
	return strictInstanceResolver{InstanceResolver: instances}
}
