// Copyright 2026 The ckarchive Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package ckarchive

import (
	"github.com/ckarchive/ckarchive/chunk"
	"github.com/ckarchive/ckarchive/ck"
	"github.com/ckarchive/ckarchive/ckclass"
	"github.com/ckarchive/ckarchive/internal/arena"
	"github.com/ckarchive/ckarchive/internal/base"
	"github.com/ckarchive/ckarchive/schema"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Object is a decoded object: its id, its class and the state read by the
// class's serializer.
type Object struct {
	ID      ck.ObjectID
	ClassID ck.ClassID
	State   ckclass.State
}

// Codec reads and writes object payloads. A Codec is not safe for concurrent
// use; its Registry may be shared between Codecs.
type Codec struct {
	opts      *Options
	arena     *arena.Arena
	chunkOpts *chunk.Options
	metrics   *Metrics
}

// New returns a Codec configured by opts, which may be nil.
func New(opts *Options) (*Codec, error) {
	opts, err := opts.EnsureDefaults()
	if err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	c := &Codec{opts: opts}
	if opts.ArenaSize > 0 {
		c.arena = arena.New(opts.ArenaSize)
	}
	c.chunkOpts = &chunk.Options{
		Arena:       c.arena,
		Limits:      &opts.Limits,
		Compression: opts.Compression,
	}
	c.metrics = newMetrics(func() float64 { return float64(c.arena.Size()) })
	if opts.MetricsRegisterer != nil {
		for _, col := range c.metrics.collectors() {
			if err := opts.MetricsRegisterer.Register(col); err != nil {
				return nil, errors.Wrap(err, "ckarchive: registering metrics")
			}
		}
	}
	return c, nil
}

// Options returns the options the Codec was built with, defaults filled in.
func (c *Codec) Options() *Options { return c.opts }

// Metrics returns the Codec's counters.
func (c *Codec) Metrics() *Metrics { return c.metrics }

// Collectors returns the Codec's metrics for registration with a
// prometheus.Registerer.
func (c *Codec) Collectors() []prometheus.Collector { return c.metrics.collectors() }

// Reset releases the arena. Objects read before Reset must not be used
// afterwards.
func (c *Codec) Reset() { c.arena.Reset() }

func className(id ck.ClassID) string {
	if info, ok := ck.Lookup(id); ok {
		return info.Name
	}
	return "unknown"
}

// ReadObject decodes the enveloped chunk buf as the payload of object id.
// The chunk's class selects the serializer; a class without one is read by
// its nearest ancestor that has one.
func (c *Codec) ReadObject(id ck.ObjectID, buf []byte) (Object, error) {
	ch, err := chunk.Decode(buf, c.chunkOpts)
	if err != nil {
		c.metrics.Failed.WithLabelValues("unknown", "decode").Inc()
		return Object{}, errors.Wrapf(err, "ckarchive: object %s", id)
	}
	cid := ch.ClassID()
	k, ok := ckclass.Lookup(cid)
	if !ok {
		c.metrics.Failed.WithLabelValues(className(cid), "decode").Inc()
		return Object{}, base.NotFoundErrorf("ckarchive: object %s: no serializer for %s", id, cid)
	}
	s := k.New()
	if err := k.Deserialize(ch, s, c.opts.Logger); err != nil {
		c.metrics.Failed.WithLabelValues(k.Info.Name, "decode").Inc()
		return Object{}, errors.Wrapf(err, "ckarchive: object %s", id)
	}
	c.metrics.Decoded.WithLabelValues(k.Info.Name).Inc()
	return Object{ID: id, ClassID: cid, State: s}, nil
}

// WriteObject encodes obj and returns the enveloped chunk.
func (c *Codec) WriteObject(obj Object) ([]byte, error) {
	k, ok := ckclass.Lookup(obj.ClassID)
	if !ok {
		c.metrics.Failed.WithLabelValues(className(obj.ClassID), "encode").Inc()
		return nil, base.NotFoundErrorf("ckarchive: object %s: no serializer for %s", obj.ID, obj.ClassID)
	}
	ch := chunk.New(obj.ClassID, c.opts.FileVersion, c.chunkOpts)
	if err := k.Serialize(ch, obj.State); err != nil {
		c.metrics.Failed.WithLabelValues(k.Info.Name, "encode").Inc()
		return nil, errors.Wrapf(err, "ckarchive: object %s", obj.ID)
	}
	buf, err := ch.Encode()
	if err != nil {
		c.metrics.Failed.WithLabelValues(k.Info.Name, "encode").Inc()
		return nil, errors.Wrapf(err, "ckarchive: object %s", obj.ID)
	}
	c.metrics.Encoded.WithLabelValues(k.Info.Name).Inc()
	return buf, nil
}

// FinishLoading resolves the references between objs once all of them have
// been read. References to objects outside objs are treated as dangling.
func (c *Codec) FinishLoading(objs []Object) error {
	repo := make(ckclass.MapRepository, len(objs))
	for _, o := range objs {
		repo[o.ID.Index()] = o.ClassID
	}
	for _, o := range objs {
		k, ok := ckclass.Lookup(o.ClassID)
		if !ok {
			return base.NotFoundErrorf("ckarchive: object %s: no serializer for %s", o.ID, o.ClassID)
		}
		if err := k.FinishLoading(o.State, repo, c.opts.Logger); err != nil {
			c.metrics.Failed.WithLabelValues(k.Info.Name, "finish").Inc()
			return errors.Wrapf(err, "ckarchive: object %s", o.ID)
		}
	}
	return nil
}

// ParameterValue decodes the value of a parameter state with the Codec's
// registry.
func (c *Codec) ParameterValue(p *ckclass.Parameter) (schema.Value, error) {
	return p.DecodeValue(c.opts.Registry)
}
