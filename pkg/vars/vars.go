// Package vars 标量变量注册表
// 统计结果以 vmin、vp50 这类名字导出，供脚本和后续命令读取
package vars

import (
	"slices"
	"sync"
)

// Registry 创建或更新标量变量
type Registry interface {
	Set(name string, value float64) error
	Get(name string) (float64, bool)
	Names() []string
}

// Memory 进程内的变量表
type Memory struct {
	mu     sync.RWMutex
	values map[string]float64
}

// NewMemory 创建空的变量表
func NewMemory() *Memory {
	return &Memory{values: make(map[string]float64)}
}

// Set 创建或更新变量
func (m *Memory) Set(name string, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = value
	return nil
}

// Get 读取变量
func (m *Memory) Get(name string) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[name]
	return v, ok
}

// Names 返回排序后的变量名
func (m *Memory) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.values))
	for name := range m.values {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
