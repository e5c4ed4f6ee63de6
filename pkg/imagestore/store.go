// Package imagestore 提供进程内的命名图像库
// 图像带有类型化缓冲区、写入计数器和按槽位划分的计数信号量
package imagestore

import (
	"fmt"
	"slices"
	"sync"

	"github.com/Kevin-Rudy/imgmon/pkg/core"
	"github.com/sirupsen/logrus"
)

// DefaultSemaphores 新建图像默认的信号量槽位数
const DefaultSemaphores = 3

// ErrNotFound 图像不存在
var ErrNotFound = fmt.Errorf("%w: 图像不存在", core.ErrInvalidReference)

var log = logrus.WithField("component", "imagestore")

// Store 命名图像库
type Store struct {
	mu     sync.RWMutex
	images map[string]*Image
}

// NewStore 创建空的图像库
func NewStore() *Store {
	return &Store{images: make(map[string]*Image)}
}

// Create 分配新图像，同名图像已存在时报错
func (s *Store) Create(name string, t core.DataType, nsem int, size ...int) (*Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.images[name]; exists {
		return nil, fmt.Errorf("图像 %s 已存在", name)
	}
	im := newImage(name, core.NewBuffer(t, size...), nsem)
	s.images[name] = im
	log.WithFields(logrus.Fields{"image": name, "type": t, "size": size}).Debug("创建图像")
	return im, nil
}

// Put 以已有缓冲区创建或替换图像
func (s *Store) Put(name string, buf *core.Buffer, nsem int) *Image {
	s.mu.Lock()
	defer s.mu.Unlock()

	im := newImage(name, buf, nsem)
	s.images[name] = im
	log.WithFields(logrus.Fields{"image": name, "type": buf.Type, "size": buf.Size}).Debug("载入图像")
	return im
}

// Lookup 按名称查找图像
func (s *Store) Lookup(name string) (*Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	im, ok := s.images[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return im, nil
}

// Delete 删除图像，不存在时忽略
func (s *Store) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.images, name)
}

// Names 返回按字母序排列的图像名
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.images))
	for name := range s.images {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
