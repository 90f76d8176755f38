package container

import (
	"errors"
	"fmt"
)

// PostProcessor sees every instance the container creates, after factories
// and extenders have run, and may replace it (for example with a proxy).
//
// Plain components are passed under their registered name. A FactoryObject
// is passed under FactoryPrefix+name and its products under name.
type PostProcessor interface {
	PostProcessAfterInitialization(instance any, name string) (any, error)
}

// PostProcessorFunc adapts a function into a PostProcessor.
type PostProcessorFunc func(instance any, name string) (any, error)

func (f PostProcessorFunc) PostProcessAfterInitialization(instance any, name string) (any, error) {
	return f(instance, name)
}

// AddPostProcessor appends a post-processor. Instances already cached as
// singletons are not reprocessed.
func (c *Container) AddPostProcessor(p PostProcessor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.postProcessors = append(c.postProcessors, p)
}

// PostProcessors returns a copy of the registered post-processors.
func (c *Container) PostProcessors() []PostProcessor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]PostProcessor, len(c.postProcessors))
	copy(out, c.postProcessors)
	return out
}

func (c *Container) postProcess(name string, instance any) any {
	c.mu.RLock()
	pps := c.postProcessors
	c.mu.RUnlock()

	for _, pp := range pps {
		out, err := pp.PostProcessAfterInitialization(instance, name)
		if err != nil {
			panic(fmt.Errorf("container: post-processing [%s]: %w", name, err))
		}
		instance = out
	}
	return instance
}

// TryMake is Make without the panic: resolution failures, including errors
// raised by factory objects and post-processors, are returned.
//
//	svc, err := c.TryMake("userService")
//	if errors.Is(err, autoproxy.ErrNoProxyFactory) { ... }
func (c *Container) TryMake(abstract string) (instance any, err error) {
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case error:
				err = v
			case string:
				err = errors.New(v)
			default:
				err = fmt.Errorf("container: %v", v)
			}
		}
	}()
	return c.make(abstract), nil
}
