// Package biz 提供机器人服务的业务逻辑层。
//
// 该包将问答流程拆分为以下组件：
//   - Chunker: 将知识文档切分为分块
//   - Embedder: 分批生成向量并校验维度
//   - Gate: 判断问题是否偏离 Camaral 主题
//   - Generator: 检索、拦截并调用 LLM 生成回答
//   - Indexer: 分块、嵌入、清空并写入向量库
//   - ChatService: 结合对话历史提供问答入口
package biz
