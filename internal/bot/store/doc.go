// Package store 提供机器人知识库的向量存储层。
//
// 该包定义了向量存储接口以及 Upstash、Milvus 和内存三种实现，
// 支持分块的写入、相似度检索、清空和统计。
package store
