// Package process 查询当前线程的 CPU 亲和性。
package process
